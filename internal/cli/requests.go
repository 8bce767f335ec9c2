package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Create, queue, approve, and decline work requests",
	}
	cmd.AddCommand(newRequestCreateCmd(), newRequestQueueCmd(), newRequestApproveCmd(), newRequestDeclineCmd())
	return cmd
}

func newRequestCreateCmd() *cobra.Command {
	var (
		companyID    string
		employmentID string
		hours        float64
		priority     string
		deadline     string
		task         string
		requestedBy  string
	)

	cmd := &cobra.Command{
		Use:   "create <agent_id>",
		Short: "Enqueue a work request for an agent",
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
			if deadline != "" {
				body["deadline"] = deadline
			}
			if task != "" {
				body["task_description"] = task
			}
			if requestedBy != "" {
				body["requested_by"] = requestedBy
			}

			resp, err := client.Post("/api/v1/agents/"+agentID+"/requests", body)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}

			var wr map[string]any
			if err := json.Unmarshal(resp.Data, &wr); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			id, _ := wr["id"].(string)
			effective, _ := wr["effective_priority"].(string)
			fmt.Printf("Request created: %s\n", id)
			fmt.Printf("  Agent:    %s\n", agentID)
			fmt.Printf("  Priority: %s\n", effective)
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().StringVar(&employmentID, "employment", "", "Employment ID")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Estimated hours")
	cmd.Flags().StringVar(&priority, "priority", "", "Requested priority (high, normal, low)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (RFC 3339)")
	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "", "Requester identity")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("employment")
	cmd.MarkFlagRequired("hours")

	return cmd
}

func newRequestQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue <agent_id>",
		Short: "Show an agent's pending requests in scheduling order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			resp, err := client.Get("/api/v1/agents/" + agentID + "/requests/queue")
			if err != nil {
				return fmt.Errorf("get queue: %w", err)
			}

			var data struct {
				Requests []map[string]any `json:"requests"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data.Requests) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}

			fmt.Printf("%-40s  %-8s  %-8s  %-25s  %s\n", "ID", "PRIORITY", "HOURS", "DEADLINE", "TASK")
			fmt.Printf("%-40s  %-8s  %-8s  %-25s  %s\n", "----", "--------", "-----", "--------", "----")
			for _, wr := range data.Requests {
				id, _ := wr["id"].(string)
				priority, _ := wr["effective_priority"].(string)
				hours, _ := wr["estimated_hours"].(float64)
				deadline, _ := wr["deadline"].(string)
				task, _ := wr["task_description"].(string)
				if deadline == "" {
					deadline = "-"
				}
				fmt.Printf("%-40s  %-8s  %-8g  %-25s  %s\n", id, priority, hours, deadline, task)
			}
			return nil
		},
	}
}

func newRequestApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <request_id>",
		Short: "Approve a pending work request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if _, err := client.Put("/api/v1/requests/"+id+"/approve", nil); err != nil {
				return fmt.Errorf("approve request: %w", err)
			}
			fmt.Printf("Request approved: %s\n", id)
			return nil
		},
	}
}

func newRequestDeclineCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "decline <request_id>",
		Short: "Decline a pending work request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var body any
			if reason != "" {
				body = map[string]any{"reason": reason}
			}
			if _, err := client.Put("/api/v1/requests/"+id+"/decline", body); err != nil {
				return fmt.Errorf("decline request: %w", err)
			}
			fmt.Printf("Request declined: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason for declining")

	return cmd
}
