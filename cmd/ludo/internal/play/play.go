package play

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/ext"
)

// ErrQuit is returned when the player leaves the game.
var ErrQuit = errors.New("player quit")

// CmdPlay represents the play command.
var CmdPlay = &cobra.Command{
	Use:   "play",
	Short: "Play against AI seats in the terminal",
	Long:  "Play against AI seats in the terminal. Example: ludo play --color red --seats red,yellow --strategy evaluate",
	RunE:  run,
}

var (
	color    string
	seats    string
	strategy string
	seed     int64
	delay    time.Duration
)

func init() {
	CmdPlay.Flags().StringVarP(&color, "color", "c", "red", "your color")
	CmdPlay.Flags().StringVar(&seats, "seats", "red,green,yellow,blue", "seated colors in turn order")
	CmdPlay.Flags().StringVarP(&strategy, "strategy", "s", string(model.StrategyEvaluate), "ai strategy")
	CmdPlay.Flags().Int64Var(&seed, "seed", 0, "dice seed (0 picks one)")
	CmdPlay.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "pause after each ai action")
}

// Options 对局参数
type Options struct {
	Human    model.Color
	Colors   []model.Color
	Strategy model.Strategy
	Seed     int64
	Delay    time.Duration
}

func run(cmd *cobra.Command, _ []string) error {
	human, err := model.ParseColor(color)
	if err != nil {
		return err
	}
	var colors []model.Color
	for _, name := range strings.Split(seats, ",") {
		c, err := model.ParseColor(name)
		if err != nil {
			return err
		}
		colors = append(colors, c)
	}
	s, err := model.ParseStrategy(strategy)
	if err != nil {
		return err
	}
	_, err = Play(cmd.InOrStdin(), cmd.OutOrStdout(), Options{Human: human, Colors: colors, Strategy: s, Seed: seed, Delay: delay})
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// Play runs one game on the terminal until it ends or the player quits.
func Play(in io.Reader, out io.Writer, opts Options) (model.Game, error) {
	if !lo.Contains(opts.Colors, opts.Human) {
		return model.Game{}, fmt.Errorf("%v is not seated", opts.Human)
	}
	g, err := model.NewGame(model.DefaultRules(), opts.Colors)
	if err != nil {
		return g, err
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	dice, rng := model.NewDice(opts.Seed), ext.NewRand(opts.Seed)
	sc := bufio.NewScanner(in)

	fmt.Fprintf(out, "you are %v. seats: %v. ai plays %s. seed %d\n", opts.Human, opts.Colors, opts.Strategy, opts.Seed)
	for !g.Over() {
		var cmd model.Command
		if g.Turn.Color == opts.Human {
			cmd, err = prompt(sc, out, g)
			if err != nil {
				return g, err
			}
		} else {
			cmd = model.NextCommand(g, dice, opts.Strategy, rng)
		}
		if cmd.Kind == model.CmdRoll && cmd.Die == 0 {
			cmd.Die = dice.Roll()
		}

		next, res, err := g.Apply(cmd)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		g = next
		fmt.Fprintln(out, describe(g, res))
		if res.Color != opts.Human && opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}
	fmt.Fprintf(out, "%v wins after %d turns\n", g.Winner, g.Stats.TurnsDone)
	return g, nil
}

// prompt asks the player for the next command. A roll is returned with die 0
// and rolled by the caller.
func prompt(sc *bufio.Scanner, out io.Writer, g model.Game) (model.Command, error) {
	if g.Phase == model.PhaseAwaitRoll {
		fmt.Fprintf(out, "%s\n[%v] enter to roll, q to quit: ", board(g), g.Turn.Color)
	} else {
		fmt.Fprintf(out, "[%v] rolled %d, movable %v, token: ", g.Turn.Color, g.Turn.Die, g.Turn.Movable)
	}
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return model.Command{}, err
		}
		return model.Command{}, io.ErrUnexpectedEOF
	}
	line := strings.TrimSpace(sc.Text())
	if line == "q" {
		return model.Command{}, ErrQuit
	}
	if g.Phase == model.PhaseAwaitRoll {
		return model.Roll(0), nil
	}
	idx, err := strconv.Atoi(line)
	if err != nil {
		// not a number: the engine rejects it and the prompt repeats
		return model.Move(-1), nil
	}
	return model.Move(idx), nil
}

func board(g model.Game) string {
	var sb strings.Builder
	for _, c := range g.Colors {
		fmt.Fprintf(&sb, "  %-7v %v home:%d\n", c, g.Board.Tokens[c], g.Board.HomeCount(c))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// describe renders an outcome against the game it produced.
func describe(g model.Game, o model.Outcome) string {
	switch {
	case o.Kind == model.CmdRoll && o.Forfeited:
		return fmt.Sprintf("%v rolled %d: third six, turn forfeited", o.Color, o.Die)
	case o.Kind == model.CmdRoll && o.Passed:
		return fmt.Sprintf("%v rolled %d: no move", o.Color, o.Die)
	case o.Kind == model.CmdRoll:
		return fmt.Sprintf("%v rolled %d", o.Color, o.Die)
	case o.Move != nil:
		m := o.Move
		s := fmt.Sprintf("%v moved token %d %v -> %v", o.Color, m.Index, m.From, m.To)
		for _, c := range m.Captures {
			s += fmt.Sprintf(", captured %v/%d", c.Color, c.Index)
		}
		if m.To.OnRing() {
			cell := g.Rules.Cell(m.Color, m.To.Pos)
			others := lo.Reject(g.Board.Occupants(g.Rules, cell), func(r model.TokenRef, _ int) bool {
				return r.Color == m.Color && r.Index == m.Index
			})
			if len(others) > 0 {
				refs := lo.Map(others, func(r model.TokenRef, _ int) string { return fmt.Sprintf("%v/%d", r.Color, r.Index) })
				s += fmt.Sprintf(", shares cell %d with %s", cell, strings.Join(refs, " "))
			}
		}
		if m.ExtraTurn {
			s += fmt.Sprintf(", rolls again %v", m.Reasons)
		}
		return s
	default:
		return o.Kind.String()
	}
}
