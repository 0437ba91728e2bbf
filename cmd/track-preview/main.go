package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/asv-radar-sim/internal/flightfile"
	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

// Track-preview replays a flight file on a radar display in the terminal,
// without sending anything.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	filePath := flag.String("file", "", "Flight file to preview (default: generator output path from config)")
	flag.Parse()

	if *filePath == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		*filePath = cfg.Generator.OutputPath
	}

	records, err := flightfile.LoadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to load flight: %v", err)
	}

	p := tea.NewProgram(newModel(filepath.Base(*filePath), records), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
