package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed by the bridge",
	RunE:  runListTools,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "3",
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage <name>",
	Short: "Get usage information for a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetToolUsage,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "4",
	},
}

func init() {
	rootCmd.AddCommand(listToolsCmd)
	rootCmd.AddCommand(usageCmd)
}

func runListTools(cmd *cobra.Command, args []string) error {
	tools, err := apiClient.ListTools()
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	for _, t := range tools {
		cmd.Printf("%s\n    %s\n\n", t.Name, t.Description)
	}
	cmd.Printf("%d tools available\n", len(tools))
	return nil
}

func runGetToolUsage(cmd *cobra.Command, args []string) error {
	tools, err := apiClient.ListTools()
	if err != nil {
		return fmt.Errorf("failed to get tool '%s': %w", args[0], err)
	}

	for _, t := range tools {
		if t.Name != args[0] {
			continue
		}

		cmd.Println(t.Name)
		cmd.Println(t.Description)

		if len(t.InputSchema.Properties) == 0 {
			cmd.Println("This tool does not require any input parameters.")
			return nil
		}

		cmd.Println()
		cmd.Println("Input Parameters:")
		for k, v := range t.InputSchema.Properties {
			requiredOrOptional := "optional"
			if v.Required {
				requiredOrOptional = "required"
			}

			boundary := strings.Repeat("=", len(k)+len(requiredOrOptional)+20)

			cmd.Println(boundary)
			cmd.Printf("%s (%s)\n", k, requiredOrOptional)

			j, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				// Simply print the raw object if we fail to marshal it
				cmd.Println(v)
			} else {
				cmd.Println(string(j))
			}
			cmd.Println(boundary)

			cmd.Println()
		}

		for _, group := range t.InputSchema.OneOf {
			cmd.Printf("Exactly one of the following parameters must be supplied: %s\n", strings.Join(group, ", "))
		}

		return nil
	}

	return fmt.Errorf("tool '%s' does not exist", args[0])
}
