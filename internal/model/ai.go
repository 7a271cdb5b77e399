package model

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Strategy AI选子策略
type Strategy string

const (
	StrategyRandom        Strategy = "random"
	StrategyFurthest      Strategy = "prioritize-furthest"
	StrategyLeastAdvanced Strategy = "prioritize-least-advanced"
	StrategyEvaluate      Strategy = "evaluate"
)

var Strategies = []Strategy{StrategyRandom, StrategyFurthest, StrategyLeastAdvanced, StrategyEvaluate}

func (s Strategy) Valid() bool {
	return slices.Contains(Strategies, s)
}

// ParseStrategy accepts the full names plus the short aliases first/last/best.
func ParseStrategy(s string) (Strategy, error) {
	switch v := Strategy(strings.ToLower(strings.TrimSpace(s))); v {
	case "first", "furthest":
		return StrategyFurthest, nil
	case "last", "least-advanced":
		return StrategyLeastAdvanced, nil
	case "best":
		return StrategyEvaluate, nil
	default:
		if v.Valid() {
			return v, nil
		}
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// SelectToken picks one index out of movable. It returns -1 when movable is
// empty. rng is only consulted by StrategyRandom and may be nil otherwise.
func SelectToken(b Board, r Rules, c Color, die int, movable []int, s Strategy, rng *rand.Rand) int {
	if len(movable) == 0 {
		return -1
	}
	switch s {
	case StrategyRandom:
		if rng == nil {
			return movable[0]
		}
		return movable[rng.Intn(len(movable))]
	case StrategyFurthest:
		// MaxBy keeps the earliest candidate on ties
		return lo.MaxBy(movable, func(a, best int) bool {
			return b.Tokens[c][a].Progress() > b.Tokens[c][best].Progress()
		})
	case StrategyLeastAdvanced:
		return lo.MinBy(movable, func(a, best int) bool {
			return b.Tokens[c][a].Progress() < b.Tokens[c][best].Progress()
		})
	case StrategyEvaluate:
		return lo.MaxBy(movable, func(a, best int) bool {
			return evaluate(b, r, c, a, die) > evaluate(b, r, c, best, die)
		})
	default:
		return movable[0]
	}
}

const (
	dangerDist  = 6
	threatDist  = 6
	exitBonus   = 60
	homeBonus   = 80
	safeBonus   = 15
	killBonus   = 20
	stretchStep = 2
)

// evaluate 评估单步移动得分: 移动距离, 击杀, 出基地, 到达终点, 安全点, 危险/威胁
func evaluate(b Board, r Rules, c Color, idx, die int) int {
	next, res, err := b.Apply(r, c, idx, die)
	if err != nil {
		return -1 << 30
	}

	score := die * 2
	for _, k := range res.Captures {
		score += k.From.Steps()*2 + killBonus
	}
	if res.From.Zone == ZoneBase {
		score += exitBonus
	}
	if res.To.Home {
		score += homeBonus
	}

	for i, t := range next.Tokens[c] {
		switch {
		case t.Zone == ZoneStretch:
			score += stretchStep
			continue
		case !t.OnRing():
			continue
		}
		cell := r.Cell(c, t.Pos)
		if r.IsSafe(cell) {
			score += safeBonus
		}
		score += t.Pos / 5
		if i != idx {
			continue
		}
		for oc := range next.Tokens {
			if Color(oc) == c {
				continue
			}
			for _, e := range next.Tokens[oc] {
				if !e.OnRing() {
					continue
				}
				ecell := r.Cell(Color(oc), e.Pos)
				forward := (ecell - cell + RingSize) % RingSize
				backward := (cell - ecell + RingSize) % RingSize
				// 危险: 敌人在身后可追上
				if !r.IsSafe(cell) && backward > 0 && backward <= dangerDist {
					score -= (dangerDist - backward + 1) * 2
				}
				// 威胁: 可追杀前方敌人
				if !r.IsSafe(ecell) && forward > 0 && forward <= threatDist {
					score += (threatDist - forward + 1) / 2
				}
			}
		}
	}
	return score
}
