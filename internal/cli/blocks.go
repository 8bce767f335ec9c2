package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

func newBlocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Schedule, cancel, and inspect time blocks",
	}
	cmd.AddCommand(newBlockScheduleCmd(), newBlockCancelCmd(), newBlockConflictsCmd())
	return cmd
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse --start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse --end: %w", err)
	}
	return s, e, nil
}

func newBlockScheduleCmd() *cobra.Command {
	var (
		companyID    string
		employmentID string
		start        string
		end          string
		recurrence   string
		purpose      string
	)

	cmd := &cobra.Command{
		Use:   "schedule <agent_id>",
		Short: "Reserve a time window for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			startTime, endTime, err := parseWindow(start, end)
			if err != nil {
				return err
			}

			body := map[string]any{
				"company_id":    companyID,
				"employment_id": employmentID,
				"start_time":    startTime,
				"end_time":      endTime,
			}
			if recurrence != "" {
				body["recurrence"] = recurrence
			}
			if purpose != "" {
				body["purpose"] = purpose
			}

			resp, err := client.Post("/api/v1/agents/"+agentID+"/blocks", body)
			if err != nil {
				return fmt.Errorf("schedule block: %w", err)
			}

			var block map[string]any
			if err := json.Unmarshal(resp.Data, &block); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			id, _ := block["id"].(string)
			duration, _ := block["duration_hours"].(float64)
			fmt.Printf("Block scheduled: %s\n", id)
			fmt.Printf("  Window:   [%s, %s)\n", start, end)
			fmt.Printf("  Duration: %gh\n", duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().StringVar(&employmentID, "employment", "", "Employment ID")
	cmd.Flags().StringVar(&start, "start", "", "Window start (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (RFC 3339)")
	cmd.Flags().StringVar(&recurrence, "recurrence", "", "Recurrence pattern")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Purpose of the block")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("employment")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newBlockCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <block_id>",
		Short: "Cancel a scheduled time block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if _, err := client.Put("/api/v1/blocks/"+id+"/cancel", nil); err != nil {
				return fmt.Errorf("cancel block: %w", err)
			}
			fmt.Printf("Block cancelled: %s\n", id)
			return nil
		},
	}
}

func newBlockConflictsCmd() *cobra.Command {
	var (
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "conflicts <agent_id>",
		Short: "List scheduled blocks overlapping a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			if _, _, err := parseWindow(start, end); err != nil {
				return err
			}

			q := url.Values{}
			q.Set("start", start)
			q.Set("end", end)
			resp, err := client.Get("/api/v1/agents/" + agentID + "/blocks/conflicts?" + q.Encode())
			if err != nil {
				return fmt.Errorf("find conflicts: %w", err)
			}

			var data struct {
				Conflicts []map[string]any `json:"conflicts"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data.Conflicts) == 0 {
				fmt.Println("No conflicts.")
				return nil
			}

			fmt.Printf("%-40s  %-25s  %-25s  %s\n", "ID", "START", "END", "PURPOSE")
			fmt.Printf("%-40s  %-25s  %-25s  %s\n", "----", "-----", "---", "-------")
			for _, block := range data.Conflicts {
				id, _ := block["id"].(string)
				bs, _ := block["start_time"].(string)
				be, _ := block["end_time"].(string)
				purpose, _ := block["purpose"].(string)
				fmt.Printf("%-40s  %-25s  %-25s  %s\n", id, bs, be, purpose)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (RFC 3339)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}
