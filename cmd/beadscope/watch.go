package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/beadscope/beadscope/internal/events"
	"github.com/beadscope/beadscope/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream engine events from NATS to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			return fmt.Errorf("NATS URL required (--nats or BEADSCOPE_NATS_URL)")
		}

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe("beadscope.>")
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

// printEvent prints one event line: timestamp, then the compacted payload.
func printEvent(data []byte) {
	stamp := ui.RenderMuted(time.Now().Format("15:04:05"))
	var compact map[string]any
	if err := json.Unmarshal(data, &compact); err != nil {
		fmt.Printf("%s %s\n", stamp, string(data))
		return
	}
	line, _ := json.Marshal(compact)
	fmt.Printf("%s %s\n", stamp, line)
}

func init() {
	watchCmd.Flags().String("nats", os.Getenv("BEADSCOPE_NATS_URL"), "NATS server URL")
}
