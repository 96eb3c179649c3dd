package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a mini graph of the last width data points
type Sparkline struct {
	data  []float64
	width int
	style lipgloss.Style
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	return &Sparkline{
		width: width,
		style: lipgloss.NewStyle().Foreground(style.DefaultPalette().Primary),
	}
}

// AddDataPoint adds a new data point to the sparkline
func (s *Sparkline) AddDataPoint(value float64) *Sparkline {
	s.data = append(s.data, value)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
	return s
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	if width < 1 {
		width = 1
	}
	s.width = width
	if len(s.data) > width {
		s.data = s.data[len(s.data)-width:]
	}
	return s
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.style = s.style.Foreground(color)
	return s
}

// Data returns a copy of the points currently shown.
func (s *Sparkline) Data() []float64 {
	out := make([]float64, len(s.data))
	copy(out, s.data)
	return out
}

// Max returns the largest point, 0 when empty.
func (s *Sparkline) Max() float64 {
	_, hi := s.minMax()
	return hi
}

// View renders the sparkline
func (s *Sparkline) View() string {
	return s.style.Render(s.blocks())
}

// blocks maps points onto the eight spark heights, right-padded to width.
// Points are scaled from zero so that idle periods stay at the baseline.
func (s *Sparkline) blocks() string {
	var b strings.Builder
	_, hi := s.minMax()

	for _, v := range s.data {
		idx := 0
		if hi > 0 && v > 0 {
			idx = int(v / hi * float64(len(sparkChars)-1))
			if idx >= len(sparkChars) {
				idx = len(sparkChars) - 1
			}
		}
		b.WriteRune(sparkChars[idx])
	}
	for i := len(s.data); i < s.width; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}

func (s *Sparkline) minMax() (float64, float64) {
	if len(s.data) == 0 {
		return 0, 0
	}
	lo, hi := s.data[0], s.data[0]
	for _, v := range s.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Clear removes all data points
func (s *Sparkline) Clear() *Sparkline {
	s.data = nil
	return s
}
