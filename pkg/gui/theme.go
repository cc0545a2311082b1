package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme holds the board palette. Highlights are blended over the square
// colors rather than replacing them.
type Theme struct {
	Name        string
	SquareDark  tcell.Color
	SquareLight tcell.Color
	LastMove    tcell.Color
	Selected    tcell.Color
	Check       tcell.Color
	MoveDest    tcell.Color
	Premove     tcell.Color
	Explode     tcell.Color
	White       tcell.Color
	Black       tcell.Color
	Coords      tcell.Color
	Status      tcell.Color
}

// ThemeHex is the form a Theme takes in a config file
type ThemeHex struct {
	Name        string `json:"name"`
	SquareDark  string `json:"squareDark"`
	SquareLight string `json:"squareLight"`
	LastMove    string `json:"lastMove"`
	Selected    string `json:"selected"`
	Check       string `json:"check"`
	MoveDest    string `json:"moveDest"`
	Premove     string `json:"premove"`
	Explode     string `json:"explode"`
	White       string `json:"white"`
	Black       string `json:"black"`
	Coords      string `json:"coords"`
	Status      string `json:"status"`
}

func fmtHex(v int32) string {
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		t.Name,
		fmtHex(t.SquareDark.Hex()),
		fmtHex(t.SquareLight.Hex()),
		fmtHex(t.LastMove.Hex()),
		fmtHex(t.Selected.Hex()),
		fmtHex(t.Check.Hex()),
		fmtHex(t.MoveDest.Hex()),
		fmtHex(t.Premove.Hex()),
		fmtHex(t.Explode.Hex()),
		fmtHex(t.White.Hex()),
		fmtHex(t.Black.Hex()),
		fmtHex(t.Coords.Hex()),
		fmtHex(t.Status.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme
func (t ThemeHex) Theme() Theme {
	return Theme{
		t.Name,
		tcell.GetColor(t.SquareDark),
		tcell.GetColor(t.SquareLight),
		tcell.GetColor(t.LastMove),
		tcell.GetColor(t.Selected),
		tcell.GetColor(t.Check),
		tcell.GetColor(t.MoveDest),
		tcell.GetColor(t.Premove),
		tcell.GetColor(t.Explode),
		tcell.GetColor(t.White),
		tcell.GetColor(t.Black),
		tcell.GetColor(t.Coords),
		tcell.GetColor(t.Status),
	}
}

// ImportThemes returns a converted Theme from a slice of ThemeHex
// entities if its name matches the want argument
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	for _, t := range Themes {
		if t.Name == want {
			return t, nil
		}
	}

	return Theme{}, errors.New("theme: no theme found")
}

func toColorful(c tcell.Color) colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Blend mixes over into base, t in [0, 1]. Colors without an RGB value
// (the terminal default) are returned unchanged.
func Blend(base, over tcell.Color, t float64) tcell.Color {
	if base.Hex() < 0 || over.Hex() < 0 {
		return base
	}
	c := toColorful(base).BlendLab(toColorful(over), t).Clamped()
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",        // Name
	tcell.Color180, // SquareDark
	tcell.Color230, // SquareLight
	tcell.Color226, // LastMove
	tcell.Color114, // Selected
	tcell.Color196, // Check
	tcell.Color28,  // MoveDest
	tcell.Color69,  // Premove
	tcell.Color208, // Explode
	tcell.Color232, // White
	tcell.Color232, // Black
	tcell.Color247, // Coords
	tcell.Color160, // Status
}

// ThemeGreen mimics a tournament board
var ThemeGreen = Theme{
	"green",
	tcell.NewHexColor(0x769656),
	tcell.NewHexColor(0xeeeed2),
	tcell.NewHexColor(0xbaca44),
	tcell.NewHexColor(0x14551e),
	tcell.NewHexColor(0xff0000),
	tcell.NewHexColor(0x14551e),
	tcell.NewHexColor(0x14375a),
	tcell.NewHexColor(0xff7f00),
	tcell.ColorBlack,
	tcell.ColorBlack,
	tcell.Color247,
	tcell.Color160,
}

var Themes = []Theme{ThemeBasic, ThemeGreen}
