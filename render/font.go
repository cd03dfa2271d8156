package render

import (
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Font defines the parameters for rendering text labels on an image.
type Font struct {
	Face  font.Face
	Color color.RGBA
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
}

// DefaultFont returns default font settings.
func DefaultFont() Font {
	return Font{
		Face:      basicfont.Face7x13,
		Color:     White,
		LeftPad:   3,
		RightPad:  3,
		TopPad:    2,
		BottomPad: 2,
	}
}
