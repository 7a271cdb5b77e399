package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/conf"
	"github.com/yola1107/ludo/library/mq/rabbitmq"
)

// CmdResults represents the results command.
var CmdResults = &cobra.Command{
	Use:   "results",
	Short: "Follow finished games published by the server",
	Long:  "Follow finished games published by the server. Example: ludo results --conf configs/config.yaml",
	RunE:  run,
}

var (
	confPath string
	queue    string
	asYAML   bool
)

func init() {
	CmdResults.Flags().StringVar(&confPath, "conf", "configs/config.yaml", "server config path")
	CmdResults.Flags().StringVar(&queue, "queue", "ludo.results.cli", "queue bound to the results exchange")
	CmdResults.Flags().BoolVar(&asYAML, "yaml", false, "print each result as yaml")
}

func run(cmd *cobra.Command, _ []string) error {
	c, bc, err := conf.LoadConfig(confPath)
	if err != nil {
		return err
	}
	defer c.Close()

	mq := bc.Data.Rabbitmq
	if !mq.Enabled {
		return fmt.Errorf("rabbitmq is disabled in %s", confPath)
	}
	copts := rabbitmq.DefaultConsumerOptions()
	copts.Queue = queue
	copts.Exchange = mq.Publisher.Exchange
	copts.ExchangeType = lo.CoalesceOrEmpty(mq.Publisher.ExchangeType, copts.ExchangeType)
	copts.RoutingKey = mq.Publisher.RoutingKey
	copts.AutoAck = true

	consumer, err := rabbitmq.NewConsumer(mq.Conn, copts, NewHandler(cmd.OutOrStdout(), asYAML))
	if err != nil {
		return err
	}
	consumer.Start()
	defer func() {
		consumer.Close()
		st := consumer.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "received %d results, %d undecodable\n", st.Handled, st.Failed)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.OutOrStdout(), "waiting for results on %q (exchange %q)\n", copts.Queue, copts.Exchange)
	<-ctx.Done()
	if err := ctx.Err(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// NewHandler decodes published game histories and prints one per message.
// Workers may call it concurrently.
func NewHandler(out io.Writer, yamlOut bool) rabbitmq.MessageHandler {
	var mu sync.Mutex
	return func(body []byte) error {
		var h table.History
		if err := json.Unmarshal(body, &h); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if yamlOut {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(h); err != nil {
				return err
			}
			return enc.Close()
		}
		_, err := fmt.Fprintln(out, Format(h))
		return err
	}
}

// Format renders a history as a single line.
func Format(h table.History) string {
	return fmt.Sprintf("%s  winner=%-6v seats=%v turns=%d rolls=%d moves=%d captures=%d forfeits=%d took=%v",
		h.GameID, h.Winner, h.Colors, h.Turns, h.Rolls, h.Moves, h.Captures, h.Forfeits,
		h.FinishedAt.Sub(h.StartedAt).Round(time.Millisecond))
}
