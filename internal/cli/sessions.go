package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Start, end, and list work sessions",
	}
	cmd.AddCommand(newSessionStartCmd(), newSessionEndCmd(), newSessionListCmd())
	return cmd
}

func newSessionStartCmd() *cobra.Command {
	var (
		companyID    string
		employmentID string
		hours        float64
		priority     string
		task         string
	)

	cmd := &cobra.Command{
		Use:   "start <agent_id>",
		Short: "Start a work session for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			body := map[string]any{
				"company_id":      companyID,
				"employment_id":   employmentID,
				"estimated_hours": hours,
			}
			if priority != "" {
				body["priority"] = priority
			}
			if task != "" {
				body["task_description"] = task
			}

			resp, err := client.Post("/api/v1/agents/"+agentID+"/sessions", body)
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}

			var ses map[string]any
			if err := json.Unmarshal(resp.Data, &ses); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			id, _ := ses["id"].(string)
			fmt.Printf("Session started: %s\n", id)
			fmt.Printf("  Agent:    %s\n", agentID)
			fmt.Printf("  Hours:    %g\n", hours)
			if p, ok := ses["priority"].(string); ok {
				fmt.Printf("  Priority: %s\n", p)
			}

			if len(resp.Warning) > 0 && string(resp.Warning) != "null" {
				var warn map[string]any
				if err := json.Unmarshal(resp.Warning, &warn); err == nil {
					msg, _ := warn["message"].(string)
					level, _ := warn["level"].(string)
					fmt.Printf("  %s: %s\n", level, msg)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().StringVar(&employmentID, "employment", "", "Employment ID")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Estimated hours")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (high, normal, low)")
	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("employment")
	cmd.MarkFlagRequired("hours")

	return cmd
}

func newSessionEndCmd() *cobra.Command {
	var actualHours float64

	cmd := &cobra.Command{
		Use:   "end <session_id>",
		Short: "End an active work session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Put("/api/v1/sessions/"+id+"/end", map[string]any{
				"actual_hours": actualHours,
			})
			if err != nil {
				return fmt.Errorf("end session: %w", err)
			}

			var ses map[string]any
			if err := json.Unmarshal(resp.Data, &ses); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Session ended: %s\n", id)
			if h, ok := ses["actual_hours"].(float64); ok {
				fmt.Printf("  Actual hours: %g\n", h)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&actualHours, "hours", 0, "Actual hours worked")
	cmd.MarkFlagRequired("hours")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <agent_id>",
		Short: "List an agent's active sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			resp, err := client.Get("/api/v1/agents/" + agentID + "/sessions")
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			var data struct {
				Sessions []map[string]any `json:"sessions"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data.Sessions) == 0 {
				fmt.Println("No active sessions.")
				return nil
			}

			fmt.Printf("%-40s  %-8s  %-8s  %s\n", "ID", "HOURS", "PRIORITY", "STARTED")
			fmt.Printf("%-40s  %-8s  %-8s  %s\n", "----", "-----", "--------", "-------")
			for _, ses := range data.Sessions {
				id, _ := ses["id"].(string)
				hours, _ := ses["estimated_hours"].(float64)
				priority, _ := ses["priority"].(string)
				started, _ := ses["started_at"].(string)
				fmt.Printf("%-40s  %-8g  %-8s  %s\n", id, hours, priority, started)
			}
			return nil
		},
	}
}
