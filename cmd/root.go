// Package cmd implements the vpsbridge command line interface.
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vpsbridge/vpsbridge/client"
	"github.com/vpsbridge/vpsbridge/pkg/version"
)

type subCommandGroup string

const (
	subCommandGroupBasic    subCommandGroup = "Basic Commands"
	subCommandGroupAdvanced subCommandGroup = "Advanced Commands"
)

const asciiArt = `
 _  _ ____  ____  ____  ____  ____  ____   ___  ____
( \/ (  _ \/ ___)(  _ \(  _ \(_  _)(    \ / __)(  __)
 \  / ) __/\___ \ ) _ ( )   / _)(_  ) D (( (_ \ ) _)
  \/ (__)  (____/(____/(__\_)(____)(____/ \___/(____)
`

const serverURLEnvVar = "VPSBRIDGE_SERVER_URL"

var serverURL string

// apiClient is used by client-side subcommands to talk to the server.
var apiClient *client.Client

var rootCmd = &cobra.Command{
	Use:     "vpsbridge",
	Version: version.GetVersion(),
	Short:   "Tool call bridge for VPS provisioning",
	Long: "vpsbridge exposes a cloud provider's VPS provisioning API as a set of\n" +
		"self-describing tools that AI agents and scripts can discover and invoke.\n" +
		"Every tool call is validated before execution and recorded in a durable call log.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if serverURL == "" {
			serverURL = os.Getenv(serverURLEnvVar)
		}
		if serverURL == "" {
			serverURL = "http://127.0.0.1:8080"
		}
		apiClient = client.NewClient(serverURL, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&serverURL,
		"server",
		"",
		fmt.Sprintf("Base URL of the vpsbridge server (overrides env var %s)", serverURLEnvVar),
	)
	rootCmd.SetUsageFunc(groupedUsageFunc)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// groupedUsageFunc renders subcommands under their annotated groups,
// ordered by the "order" annotation within each group.
func groupedUsageFunc(cmd *cobra.Command) error {
	out := cmd.OutOrStderr()

	fmt.Fprintf(out, "Usage:\n  %s [command]\n", cmd.CommandPath())

	groups := map[subCommandGroup][]*cobra.Command{}
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		g := subCommandGroup(sub.Annotations["group"])
		if g == "" {
			g = subCommandGroupAdvanced
		}
		groups[g] = append(groups[g], sub)
	}

	for _, g := range []subCommandGroup{subCommandGroupBasic, subCommandGroupAdvanced} {
		subs := groups[g]
		if len(subs) == 0 {
			continue
		}
		sort.Slice(subs, func(i, j int) bool {
			oi, _ := strconv.Atoi(subs[i].Annotations["order"])
			oj, _ := strconv.Atoi(subs[j].Annotations["order"])
			if oi != oj {
				return oi < oj
			}
			return subs[i].Name() < subs[j].Name()
		})

		fmt.Fprintf(out, "\n%s:\n", g)
		for _, sub := range subs {
			fmt.Fprintf(out, "  %-18s %s\n", sub.Name(), sub.Short)
		}
	}

	fmt.Fprintf(out, "\nFlags:\n%s", cmd.Flags().FlagUsages())
	fmt.Fprintf(out, "\nUse \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	return nil
}
