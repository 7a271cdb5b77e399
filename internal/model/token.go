package model

import "fmt"

// Zone 棋子所在区域
type Zone int8

const (
	ZoneBase    Zone = iota // 未出发
	ZoneRing                // 在公共路径上
	ZoneStretch             // 在终点路径上
)

var zoneNames = []string{"base", "ring", "stretch"}

func (z Zone) String() string {
	if z >= 0 && int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return fmt.Sprintf("Zone(%d)", z)
}

func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

func (z *Zone) UnmarshalText(text []byte) error {
	for i, n := range zoneNames {
		if n == string(text) {
			*z = Zone(i)
			return nil
		}
	}
	return fmt.Errorf("unknown zone %q", text)
}

// Token 代表一枚棋子. Pos is relative to the zone: -1 at base, 0..50 on the
// ring (relative to the colour's start cell), 0..5 in the home stretch.
type Token struct {
	Zone Zone `json:"zone" yaml:"zone"`
	Pos  int  `json:"pos" yaml:"pos"`
	Home bool `json:"home" yaml:"home"`
}

func BaseToken() Token {
	return Token{Zone: ZoneBase, Pos: BasePos}
}

func (t Token) Valid() bool {
	switch t.Zone {
	case ZoneBase:
		return t.Pos == BasePos && !t.Home
	case ZoneRing:
		return t.Pos >= 0 && t.Pos < StretchEntry && !t.Home
	case ZoneStretch:
		return t.Pos >= 0 && t.Pos <= HomeOffset && t.Home == (t.Pos == HomeOffset)
	default:
		return false
	}
}

func (t Token) OnRing() bool { return t.Zone == ZoneRing }

// Progress is the score the AI compares candidates by:
// home=1000, stretch=500+offset*10, ring=position, base=-10.
func (t Token) Progress() int {
	switch {
	case t.Home:
		return 1000
	case t.Zone == ZoneStretch:
		return 500 + t.Pos*10
	case t.Zone == ZoneRing:
		return t.Pos
	default:
		return -10
	}
}

// Steps counts cells walked from the start cell, used for capture scoring.
func (t Token) Steps() int {
	switch t.Zone {
	case ZoneRing:
		return t.Pos
	case ZoneStretch:
		return StretchEntry + t.Pos
	default:
		return 0
	}
}

func (t Token) String() string {
	if t.Home {
		return "home"
	}
	return fmt.Sprintf("%v:%d", t.Zone, t.Pos)
}

// TokenRef addresses one token of the arena.
type TokenRef struct {
	Color Color `json:"color"`
	Index int   `json:"index"`
}
