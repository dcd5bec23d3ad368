package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var invokeCmdInput string

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Invoke a tool on the bridge",
	Long: "Invoke a tool with JSON arguments.\n" +
		"eg: vpsbridge invoke get_instance --input '{\"instance_id\": \"abc123\"}'",
	Args: cobra.ExactArgs(1),
	RunE: runInvokeTool,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "5",
	},
}

func init() {
	invokeCmd.Flags().StringVar(
		&invokeCmdInput,
		"input",
		"",
		"JSON object containing the tool's input arguments",
	)
	rootCmd.AddCommand(invokeCmd)
}

// parseInvokeInput decodes the --input flag value into tool arguments.
// An empty value means the tool takes no arguments.
func parseInvokeInput(input string) (map[string]any, error) {
	if input == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return nil, fmt.Errorf("input is not a valid JSON object: %w", err)
	}
	return args, nil
}

func runInvokeTool(cmd *cobra.Command, args []string) error {
	toolArgs, err := parseInvokeInput(invokeCmdInput)
	if err != nil {
		return err
	}

	result, err := apiClient.InvokeTool(args[0], toolArgs)
	if err != nil {
		return fmt.Errorf("failed to invoke tool '%s': %w", args[0], err)
	}

	if result.IsError {
		detail, merr := json.MarshalIndent(result.Error, "", "  ")
		if merr != nil {
			return fmt.Errorf("tool call failed: %v (trace id %s)", result.Error, result.TraceID)
		}
		return fmt.Errorf("tool call failed (trace id %s):\n%s", result.TraceID, detail)
	}

	out, err := json.MarshalIndent(result.Result, "", "  ")
	if err != nil {
		cmd.Println(result.Result)
		return nil
	}
	cmd.Println(string(out))
	cmd.Printf("\ntrace id: %s\n", result.TraceID)
	return nil
}
