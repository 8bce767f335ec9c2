package cli

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <agent_id>",
		Short: "Stream an agent's scheduling events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			url := client.BaseURL + "/api/v1/sse/agents/" + agentID + "/events"

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Accept", "text/event-stream")

			resp, err := client.HTTPClient.Do(req)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}

			fmt.Printf("Watching events for %s (Ctrl-C to stop)\n", agentID)

			var event string
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				line := scanner.Text()
				switch {
				case strings.HasPrefix(line, "event: "):
					event = strings.TrimPrefix(line, "event: ")
				case strings.HasPrefix(line, "data: "):
					fmt.Printf("%-24s %s\n", event, strings.TrimPrefix(line, "data: "))
				}
			}
			if err := scanner.Err(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stream closed: %w", err)
			}
			return nil
		},
	}
}
