package ui

import "github.com/jlais/visiondemo/internal/session"

// Terminal geometry. Widths are columns; a cell is roughly twice as tall as
// it is wide, so heights derived from pixel sizes are halved.
const (
	DefaultScale = 16.0

	compactAgentSize = 20
	agentMargin      = 8
	minFrame         = 4
)

// Screen describes the surface the shell draws on.
type Screen struct {
	Width   int
	Height  int
	Scale   float64 // camera pixels per column
	Spatial bool    // spatial surfaces draw media at native size
}

// Frame is a box size in cells.
type Frame struct {
	Width  int
	Height int
}

func (s Screen) scale() float64 {
	if s.Spatial || s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// CameraFrame sizes the local camera preview from the capture dimensions.
func CameraFrame(s Screen, dims session.Dimensions) Frame {
	sc := s.scale()
	return Frame{
		Width:  int(float64(dims.Width) / sc),
		Height: int(float64(dims.Height) / sc / 2),
	}
}

// AgentFrame is compact next to a camera preview or on spatial surfaces and
// otherwise spans the screen minus a margin.
func AgentFrame(s Screen, cameraEnabled bool) Frame {
	if s.Spatial || cameraEnabled {
		return Frame{Width: compactAgentSize, Height: compactAgentSize / 2}
	}
	w := max(s.Width-agentMargin, compactAgentSize)
	return Frame{Width: w, Height: w / 4}
}

// Fit clamps a frame to the columns and rows available, keeping a minimum.
func (f Frame) Fit(width, height int) Frame {
	if width > 0 {
		f.Width = min(f.Width, width)
	}
	if height > 0 {
		f.Height = min(f.Height, height)
	}
	f.Width = max(f.Width, minFrame)
	f.Height = max(f.Height, 1)
	return f
}
