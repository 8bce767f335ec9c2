package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show engine-wide scheduling counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/stats")
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}

			var stats map[string]any
			if err := json.Unmarshal(resp.Data, &stats); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			total, _ := stats["total_sessions"].(float64)
			active, _ := stats["active_sessions"].(float64)
			completed, _ := stats["completed_sessions"].(float64)
			blocks, _ := stats["scheduled_blocks"].(float64)
			pending, _ := stats["pending_requests"].(float64)
			approved, _ := stats["approved_requests"].(float64)

			fmt.Printf("Sessions: %d total, %d active, %d completed\n", int(total), int(active), int(completed))
			fmt.Printf("Blocks:   %d scheduled\n", int(blocks))
			fmt.Printf("Requests: %d pending, %d approved\n", int(pending), int(approved))
			return nil
		},
	}
}
