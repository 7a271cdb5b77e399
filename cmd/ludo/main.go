package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/yola1107/ludo/cmd/ludo/internal/play"
	"github.com/yola1107/ludo/cmd/ludo/internal/results"
	"github.com/yola1107/ludo/cmd/ludo/internal/simulate"
	"github.com/yola1107/ludo/internal/conf"
)

var rootCmd = &cobra.Command{
	Use:     "ludo",
	Short:   "Ludo: engine tools and a terminal game.",
	Long:    `Ludo: simulate AI games, play against the AI, or follow finished games from the server.`,
	Version: conf.Version,
}

func init() {
	rootCmd.AddCommand(simulate.CmdSimulate)
	rootCmd.AddCommand(play.CmdPlay)
	rootCmd.AddCommand(results.CmdResults)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
