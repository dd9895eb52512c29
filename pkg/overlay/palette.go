package overlay

import "image/color"

// palette maps detection classes to box colors. Any class not listed
// falls back to fallbackColor, so the mapping is total and deterministic.
var palette = map[string]color.RGBA{
	"person":     {R: 0, G: 255, B: 0, A: 255},
	"bicycle":    {R: 0, G: 191, B: 255, A: 255},
	"car":        {R: 255, G: 165, B: 0, A: 255},
	"motorcycle": {R: 255, G: 105, B: 180, A: 255},
	"bus":        {R: 255, G: 255, B: 0, A: 255},
	"train":      {R: 138, G: 43, B: 226, A: 255},
	"truck":      {R: 255, G: 69, B: 0, A: 255},
	"boat":       {R: 0, G: 255, B: 255, A: 255},
	"bird":       {R: 154, G: 205, B: 50, A: 255},
	"cat":        {R: 255, G: 0, B: 255, A: 255},
	"dog":        {R: 64, G: 224, B: 208, A: 255},
	"horse":      {R: 210, G: 105, B: 30, A: 255},
}

var fallbackColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// ClassColor returns the palette color for a class, or the fallback for
// classes outside the palette.
func ClassColor(className string) color.RGBA {
	if c, ok := palette[className]; ok {
		return c
	}
	return fallbackColor
}
