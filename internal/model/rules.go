package model

import (
	"fmt"
	"slices"
)

const (
	ColorCount     = 4  // 4种棋子颜色
	TokensPerColor = 4  // 每色棋子数
	RingSize       = 52 // 公共路径长度
	StretchEntry   = 51 // ring-relative position at which a token leaves the ring
	StretchLen     = 6  // Home路径长度
	HomeOffset     = StretchLen - 1
	BasePos        = -1 // 基地点pos
	MinDie         = 1
	MaxDie         = 6
	MaxSixes       = 3 // 连续3次6本轮作废
)

// ExtraTurnReason names a rule that lets the mover roll again.
type ExtraTurnReason string

const (
	ReasonSix      ExtraTurnReason = "six"
	ReasonBaseExit ExtraTurnReason = "base-exit"
	ReasonCapture  ExtraTurnReason = "capture"
	ReasonArrival  ExtraTurnReason = "arrival"
)

// extraTurnPredicates is the single place deciding whether a move keeps the turn.
var extraTurnPredicates = map[ExtraTurnReason]func(MoveResult) bool{
	ReasonSix:      func(r MoveResult) bool { return r.Die == MaxDie },
	ReasonBaseExit: func(r MoveResult) bool { return r.From.Zone == ZoneBase },
	ReasonCapture:  func(r MoveResult) bool { return len(r.Captures) > 0 },
	ReasonArrival:  func(r MoveResult) bool { return r.To.Home },
}

var (
	DefaultStartOffsets = [ColorCount]int{0, 13, 26, 39}
	DefaultSafeCells    = []int{1, 9, 14, 22, 27, 35, 40, 48}
	DefaultExtraTurns   = []ExtraTurnReason{ReasonSix, ReasonBaseExit, ReasonCapture}
)

// Rules 规则参数. Values are shared between game copies and must not be mutated
// after the game is created.
type Rules struct {
	StartOffsets [ColorCount]int   `json:"start_offsets" yaml:"start_offsets"`
	SafeCells    []int             `json:"safe_cells" yaml:"safe_cells"`
	MaxSixes     int               `json:"max_sixes" yaml:"max_sixes"`
	ExtraTurns   []ExtraTurnReason `json:"extra_turns" yaml:"extra_turns"`
}

func DefaultRules() Rules {
	return Rules{
		StartOffsets: DefaultStartOffsets,
		SafeCells:    slices.Clone(DefaultSafeCells),
		MaxSixes:     MaxSixes,
		ExtraTurns:   slices.Clone(DefaultExtraTurns),
	}
}

func (r Rules) Validate() error {
	seen := make(map[int]struct{}, ColorCount)
	for i, off := range r.StartOffsets {
		if off < 0 || off >= RingSize {
			return fmt.Errorf("start offset of %v out of range: %d", Color(i), off)
		}
		if _, dup := seen[off]; dup {
			return fmt.Errorf("duplicate start offset %d", off)
		}
		seen[off] = struct{}{}
	}
	for _, cell := range r.SafeCells {
		if cell < 0 || cell >= RingSize {
			return fmt.Errorf("safe cell out of range: %d", cell)
		}
	}
	if r.MaxSixes < 1 {
		return fmt.Errorf("max sixes must be positive, got %d", r.MaxSixes)
	}
	for _, reason := range r.ExtraTurns {
		if _, ok := extraTurnPredicates[reason]; !ok {
			return fmt.Errorf("unknown extra turn rule %q", reason)
		}
	}
	return nil
}

// Cell maps a ring-relative position of colour c onto the shared ring.
func (r Rules) Cell(c Color, ringPos int) int {
	return (ringPos + r.StartOffsets[c]) % RingSize
}

func (r Rules) IsSafe(cell int) bool {
	return slices.Contains(r.SafeCells, cell)
}

// extraTurnReasons evaluates every enabled rule once against the move.
func (r Rules) extraTurnReasons(res MoveResult) []ExtraTurnReason {
	var reasons []ExtraTurnReason
	for _, reason := range r.ExtraTurns {
		if grants := extraTurnPredicates[reason]; grants != nil && grants(res) {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}
