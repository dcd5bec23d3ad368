package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	listCallsCmdPage    int
	listCallsCmdPerPage int
)

var listCallsCmd = &cobra.Command{
	Use:   "calls",
	Short: "List recorded tool calls, newest first",
	RunE:  runListCalls,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "1",
	},
}

var getCallCmd = &cobra.Command{
	Use:   "call <id>",
	Short: "Show one recorded tool call in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetCall,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "2",
	},
}

func init() {
	listCallsCmd.Flags().IntVar(&listCallsCmdPage, "page", 1, "Page number to fetch")
	listCallsCmd.Flags().IntVar(&listCallsCmdPerPage, "per-page", 0, "Records per page (server default when 0)")

	rootCmd.AddCommand(listCallsCmd)
	rootCmd.AddCommand(getCallCmd)
}

func runListCalls(cmd *cobra.Command, args []string) error {
	page, err := apiClient.ListCalls(listCallsCmdPage, listCallsCmdPerPage)
	if err != nil {
		return fmt.Errorf("failed to list calls: %w", err)
	}

	for _, call := range page.Calls {
		status := "ok"
		if call.IsError {
			status = call.ErrorKind
		}
		cmd.Printf("%-6d %-28s %-26s %-22s %6dms  %s\n",
			call.ID, call.TraceID, call.Tool, status, call.DurationMs, call.ReceivedAt,
		)
	}
	cmd.Printf("\npage %d of %d (%d calls total)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

func runGetCall(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("call id must be a positive integer, got '%s'", args[0])
	}

	record, err := apiClient.GetCall(uint(id))
	if err != nil {
		return fmt.Errorf("failed to get call %d: %w", id, err)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render call record: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
