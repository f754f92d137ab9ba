package main

import (
	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running promptdeck server via HTTP.

These commands require a running server (promptdeck serve).
Use --server to specify a custom server URL.

Examples:
  promptdeck api ping                     # Check the server is up
  promptdeck api snapshot                 # Dump the current board state
  promptdeck api copy "a cat, sketch"     # Copy a prompt and log it`,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "History log commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:3000", "Server URL",
	)

	// Board commands at top level of api
	apiCmd.AddCommand((&endpoints.PingEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.InitEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.HistoryRevisionEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ComboChangeEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.FreeConfirmEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.DeleteChoiceEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ResetEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.CopyEndpoint{}).Command(getServerURL))

	// History log as subcommand group
	for _, ep := range endpoints.HistoryCommands() {
		if cmd := ep.Command(getServerURL); cmd != nil {
			historyCmd.AddCommand(cmd)
		}
	}

	apiCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(apiCmd)
}
