package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/ext"
)

// CmdSimulate represents the simulate command.
var CmdSimulate = &cobra.Command{
	Use:   "simulate",
	Short: "Play AI-only games and print win statistics",
	Long:  "Play AI-only games in parallel and print win statistics. Example: ludo simulate --games 1000 --strategy evaluate,random",
	RunE:  run,
}

var (
	games    int
	seed     int64
	colors   string
	strategy string
	workers  int
	maxSteps int
	dump     string
)

func init() {
	CmdSimulate.Flags().IntVarP(&games, "games", "n", 100, "number of games")
	CmdSimulate.Flags().Int64Var(&seed, "seed", 0, "base seed, game i uses seed+i (0 picks one)")
	CmdSimulate.Flags().StringVar(&colors, "colors", "red,green,yellow,blue", "seated colors in turn order")
	CmdSimulate.Flags().StringVarP(&strategy, "strategy", "s", string(model.StrategyEvaluate), "strategy per seat, comma separated; the last one repeats")
	CmdSimulate.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "games played at once")
	CmdSimulate.Flags().IntVar(&maxSteps, "max-steps", 100000, "abort a game after this many commands")
	CmdSimulate.Flags().StringVar(&dump, "dump", "", "write final states to this yaml file")
}

// Options 模拟参数
type Options struct {
	Games      int
	Seed       int64
	Colors     []model.Color
	Strategies []model.Strategy
	Workers    int
	MaxSteps   int
}

// GameResult is one finished simulation.
type GameResult struct {
	Index    int         `yaml:"index"`
	Seed     int64       `yaml:"seed"`
	Winner   model.Color `yaml:"winner"`
	Rolls    int         `yaml:"rolls"`
	Moves    int         `yaml:"moves"`
	Turns    int         `yaml:"turns"`
	Captures int         `yaml:"captures"`
	Forfeits int         `yaml:"forfeits"`
	Board    model.Board `yaml:"board"`
}

// Report 汇总
type Report struct {
	Games    int
	Wins     map[model.Color]int
	Turns    int
	Moves    int
	Captures int
	Forfeits int
	Elapsed  time.Duration
	Results  []GameResult
}

func run(cmd *cobra.Command, _ []string) error {
	opts, err := parseOptions()
	if err != nil {
		return err
	}
	rep, err := Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	Print(cmd.OutOrStdout(), opts, rep)
	if dump != "" {
		if err := Dump(dump, rep.Results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "final states written to %s\n", dump)
	}
	return nil
}

func parseOptions() (Options, error) {
	opts := Options{Games: games, Seed: seed, Workers: workers, MaxSteps: maxSteps}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	for _, name := range strings.Split(colors, ",") {
		c, err := model.ParseColor(name)
		if err != nil {
			return opts, err
		}
		opts.Colors = append(opts.Colors, c)
	}
	for _, name := range strings.Split(strategy, ",") {
		s, err := model.ParseStrategy(name)
		if err != nil {
			return opts, err
		}
		opts.Strategies = append(opts.Strategies, s)
	}
	return opts, nil
}

// strategyOf maps seat i to its strategy; the last listed one fills the rest.
func (o Options) strategyOf(c model.Color) model.Strategy {
	i := lo.IndexOf(o.Colors, c)
	if i < 0 || len(o.Strategies) == 0 {
		return model.StrategyEvaluate
	}
	return o.Strategies[min(i, len(o.Strategies)-1)]
}

// Run plays opts.Games games on opts.Workers goroutines.
func Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Games <= 0 {
		return Report{}, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	if _, err := model.NewGame(model.DefaultRules(), opts.Colors); err != nil {
		return Report{}, err
	}

	start := time.Now()
	results := make([]GameResult, opts.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i := 0; i < opts.Games; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := playOne(opts, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Games: opts.Games, Wins: make(map[model.Color]int), Elapsed: time.Since(start), Results: results}
	for _, r := range results {
		rep.Wins[r.Winner]++
		rep.Turns += r.Turns
		rep.Moves += r.Moves
		rep.Captures += r.Captures
		rep.Forfeits += r.Forfeits
	}
	return rep, nil
}

func playOne(opts Options, i int) (GameResult, error) {
	s := opts.Seed + int64(i)
	g, err := model.NewGame(model.DefaultRules(), opts.Colors)
	if err != nil {
		return GameResult{}, err
	}
	g, err = model.PlayOut(g, model.NewDice(s), opts.strategyOf, ext.NewRand(s), opts.MaxSteps)
	if err != nil {
		return GameResult{}, fmt.Errorf("game %d (seed %d): %w", i, s, err)
	}
	return GameResult{
		Index:    i,
		Seed:     s,
		Winner:   g.Winner,
		Rolls:    g.Stats.Rolls,
		Moves:    g.Stats.Moves,
		Turns:    g.Stats.TurnsDone,
		Captures: g.Stats.Captures,
		Forfeits: g.Stats.Forfeits,
		Board:    g.Board,
	}, nil
}

// Print writes the win table, best seat first.
func Print(w io.Writer, opts Options, rep Report) {
	seats := append([]model.Color(nil), opts.Colors...)
	sort.SliceStable(seats, func(i, j int) bool { return rep.Wins[seats[i]] > rep.Wins[seats[j]] })

	fmt.Fprintf(w, "%d games in %v (seed %d)\n", rep.Games, rep.Elapsed.Round(time.Millisecond), opts.Seed)
	fmt.Fprintf(w, "%-8s %-22s %6s %7s\n", "color", "strategy", "wins", "rate")
	for _, c := range seats {
		fmt.Fprintf(w, "%-8v %-22s %6d %6.2f%%\n", c, opts.strategyOf(c), rep.Wins[c],
			100*float64(rep.Wins[c])/float64(rep.Games))
	}
	n := float64(rep.Games)
	fmt.Fprintf(w, "avg turns %.1f  moves %.1f  captures %.2f  forfeits %.2f\n",
		float64(rep.Turns)/n, float64(rep.Moves)/n, float64(rep.Captures)/n, float64(rep.Forfeits)/n)
}

// Dump writes the results as yaml.
func Dump(path string, results []GameResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}
