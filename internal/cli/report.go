package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <agent_id>",
		Short: "Show an agent's capacity report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			resp, err := client.Get("/api/v1/agents/" + agentID + "/report")
			if err != nil {
				return fmt.Errorf("get report: %w", err)
			}

			var rep map[string]any
			if err := json.Unmarshal(resp.Data, &rep); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			status, _ := rep["status"].(string)
			allocation, _ := rep["allocation_percentage"].(float64)
			weekly, _ := rep["weekly_capacity_hours"].(float64)
			available, _ := rep["available_hours"].(float64)
			utilization, _ := rep["utilization_percentage"].(float64)
			activeSessions, _ := rep["active_sessions"].(float64)
			activeHours, _ := rep["active_hours"].(float64)
			pending, _ := rep["pending_requests"].(float64)
			pendingHours, _ := rep["pending_hours"].(float64)
			blocks, _ := rep["scheduled_blocks"].(float64)
			blockHours, _ := rep["scheduled_block_hours"].(float64)

			fmt.Printf("Agent: %s\n", agentID)
			fmt.Printf("  Status:      %s\n", status)
			fmt.Printf("  Allocation:  %g%% (%gh/week)\n", allocation, weekly)
			fmt.Printf("  Utilization: %.1f%%\n", utilization)
			fmt.Printf("  Available:   %gh\n", available)
			fmt.Printf("  Sessions:    %d active (%gh)\n", int(activeSessions), activeHours)
			fmt.Printf("  Requests:    %d pending (%gh)\n", int(pending), pendingHours)
			fmt.Printf("  Blocks:      %d scheduled (%gh)\n", int(blocks), blockHours)
			return nil
		},
	}
}
