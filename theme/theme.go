package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Layer gates
	GateOn  rune // ● gate open
	GateOff rune // ○ gate closed

	// Keyboard strip
	KeyHeld      rune // ■ note held
	KeyFree      rune // · note up
	KeySustained rune // ▼ released but held by a pedal

	Fired rune // ▶ layer fired on the last event
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			GateOn:  '●',
			GateOff: '○',

			KeyHeld:      '■',
			KeyFree:      '·',
			KeySustained: '▼',

			Fired: '▶',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Gate picks the symbol and color for one gate flag
func (t *Theme) Gate(on bool) (rune, lipgloss.Color) {
	if on {
		return t.Symbols.GateOn, t.Success()
	}
	return t.Symbols.GateOff, t.Muted()
}

// Level colors a normalized controller or velocity value
func (t *Theme) Level(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted + norm*(RoleSuccess-RoleMuted)))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
