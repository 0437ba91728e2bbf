// Package scope draws a plan position indicator: a top-down radar display
// with the radar at the centre, north up and range rings, rendered as text.
package scope

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Character aspect ratio correction: terminal characters are ~2:1 (height:width),
// so X distances are stretched by 1/aspectRatio to keep rings round.
const aspectRatio = 0.5

const (
	minWidth  = 21
	minHeight = 11

	glyphEmpty   = ' '
	glyphRing    = '·'
	glyphRadar   = '+'
	glyphTrail   = '∙'
	glyphCurrent = '◉'
)

// ringSteps are the candidate range ring spacings in meters.
var ringSteps = []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000}

// Scope is a fixed-size display covering MaxRangeM meters from the radar.
type Scope struct {
	Width     int
	Height    int
	MaxRangeM float64
}

// New returns a scope of the given size. Sizes below the minimum are raised.
func New(width, height int, maxRangeM float64) Scope {
	if width < minWidth {
		width = minWidth
	}
	if height < minHeight {
		height = minHeight
	}
	if maxRangeM <= 0 {
		maxRangeM = 1
	}
	return Scope{Width: width, Height: height, MaxRangeM: maxRangeM}
}

// FitRange returns a display range that holds every record with some margin,
// rounded up to a ring step.
func FitRange(records []trajectory.FlightRecord) float64 {
	maxR := 0.0
	for _, rec := range records {
		maxR = math.Max(maxR, rec.Position.RangeM)
	}
	maxR *= 1.1
	for _, step := range ringSteps {
		if maxR <= step*4 {
			return math.Max(math.Ceil(maxR/step)*step, step)
		}
	}
	last := ringSteps[len(ringSteps)-1]
	return math.Max(math.Ceil(maxR/last)*last, last)
}

func (s Scope) center() (int, int) {
	return s.Width / 2, s.Height / 2
}

// scale returns screen rows per meter.
func (s Scope) scale() float64 {
	cx, cy := s.center()
	radiusRows := math.Min(float64(cy-1), float64(cx-1)*aspectRatio)
	return radiusRows / s.MaxRangeM
}

// Project maps a radar position to a screen cell. ok is false when the
// position is beyond the display range.
func (s Scope) Project(p coordinates.PolarPosition) (col, row int, ok bool) {
	if p.RangeM > s.MaxRangeM {
		return 0, 0, false
	}
	c := coordinates.ToCartesian(p)
	k := s.scale()
	cx, cy := s.center()
	col = cx + int(math.Round(c.X*k/aspectRatio))
	// Screen rows increase downward, north is up
	row = cy - int(math.Round(c.Y*k))
	if col < 0 || col >= s.Width || row < 0 || row >= s.Height {
		return 0, 0, false
	}
	return col, row, true
}

// RingStep returns the spacing between range rings.
func (s Scope) RingStep() float64 {
	for _, step := range ringSteps {
		if s.MaxRangeM/step <= 4 {
			return step
		}
	}
	return ringSteps[len(ringSteps)-1]
}

// Grid draws the scope into a rune grid: range rings, compass letters,
// the radar at the centre, the trail up to current, and the current record.
// A negative current draws no aircraft.
func (s Scope) Grid(records []trajectory.FlightRecord, current int) [][]rune {
	grid := make([][]rune, s.Height)
	for i := range grid {
		grid[i] = make([]rune, s.Width)
		for j := range grid[i] {
			grid[i][j] = glyphEmpty
		}
	}

	step := s.RingStep()
	for r := step; r <= s.MaxRangeM; r += step {
		// One cell per degree is dense enough for any terminal size
		for az := 0.0; az < coordinates.FullCircle; az++ {
			if col, row, ok := s.Project(coordinates.PolarPosition{RangeM: r, AzimuthDeg: az}); ok {
				grid[row][col] = glyphRing
			}
		}
	}

	for _, mark := range []struct {
		az    float64
		glyph rune
	}{{0, 'N'}, {90, 'E'}, {180, 'S'}, {270, 'W'}} {
		if col, row, ok := s.Project(coordinates.PolarPosition{RangeM: s.MaxRangeM, AzimuthDeg: mark.az}); ok {
			grid[row][col] = mark.glyph
		}
	}

	cx, cy := s.center()
	grid[cy][cx] = glyphRadar

	if current >= len(records) {
		current = len(records) - 1
	}
	for i := 0; i < current; i++ {
		if col, row, ok := s.Project(records[i].Position); ok {
			grid[row][col] = glyphTrail
		}
	}
	if current >= 0 {
		if col, row, ok := s.Project(records[current].Position); ok {
			grid[row][col] = glyphCurrent
		}
	}
	return grid
}

// Render draws the scope with a border and colors.
func (s Scope) Render(records []trajectory.FlightRecord, current int) string {
	grid := s.Grid(records, current)

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ringStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("22"))
	compassStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	radarStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	trailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	currentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)

	var b strings.Builder
	b.WriteString(borderStyle.Render("┌" + strings.Repeat("─", s.Width) + "┐"))
	b.WriteString("\n")
	for _, line := range grid {
		b.WriteString(borderStyle.Render("│"))
		for _, ch := range line {
			switch ch {
			case glyphRing:
				b.WriteString(ringStyle.Render(string(ch)))
			case 'N', 'E', 'S', 'W':
				b.WriteString(compassStyle.Render(string(ch)))
			case glyphRadar:
				b.WriteString(radarStyle.Render(string(ch)))
			case glyphTrail:
				b.WriteString(trailStyle.Render(string(ch)))
			case glyphCurrent:
				b.WriteString(currentStyle.Render(string(ch)))
			default:
				b.WriteRune(ch)
			}
		}
		b.WriteString(borderStyle.Render("│"))
		b.WriteString("\n")
	}
	b.WriteString(borderStyle.Render("└" + strings.Repeat("─", s.Width) + "┘"))
	b.WriteString("\n")
	b.WriteString(borderStyle.Render(fmt.Sprintf("rings every %s, max %s", FormatRange(s.RingStep()), FormatRange(s.MaxRangeM))))
	return b.String()
}

// FormatRange renders a distance in m or km.
func FormatRange(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%gkm", m/1000)
	}
	return fmt.Sprintf("%gm", m)
}
