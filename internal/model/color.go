package model

import (
	"fmt"
	"strings"
)

// Color 棋子颜色 (seat colour). The numeric value doubles as the arena index.
type Color int8

const (
	NoColor Color = iota - 1
	Red
	Green
	Yellow
	Blue
)

var colorNames = [ColorCount]string{"red", "green", "yellow", "blue"}

// AllColors lists the colours in their default seating order.
var AllColors = []Color{Red, Green, Yellow, Blue}

func (c Color) String() string {
	if c.Valid() {
		return colorNames[c]
	}
	return "none"
}

func (c Color) Valid() bool {
	return c >= Red && c <= Blue
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseColor accepts the colour name in any case. "none" and "" map to NoColor.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "none" {
		return NoColor, nil
	}
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}
