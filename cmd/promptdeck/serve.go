package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ktanaka/promptdeck/internal/app"
	"github.com/ktanaka/promptdeck/internal/confstore"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/home"
	"github.com/ktanaka/promptdeck/internal/server"
	"github.com/ktanaka/promptdeck/internal/shell"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the promptdeck server",
	Long: `Start the promptdeck HTTP server on 127.0.0.1.

The configuration document is loaded (and normalized in place), the history
log is opened in the base directory, and the history pages are rendered
before the first request is served. When the preferred port is taken, the
next free one is used and the rendered pages pick up the bound port.

Examples:
  promptdeck serve                        # Port from config (server_port)
  promptdeck serve --port 3100            # Explicit preferred port
  promptdeck serve --config ./my.toml     # Explicit config document`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger. PROMPTDECK_TRACE=1 turns on debug output.
		level := slog.LevelInfo
		if viper.GetBool("trace") {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))

		// Resolve the base directory and the configuration document.
		base := baseDir
		if base == "" {
			base = viper.GetString("base")
		}
		h, err := home.New(base)
		if err != nil {
			return err
		}
		explicit := cfgFile
		if explicit == "" {
			explicit = viper.GetString("config")
		}
		configPath := h.ResolveConfigPath(explicit)

		store, err := confstore.Load(configPath)
		if err != nil {
			return err
		}
		logger.Info("config loaded", "path", configPath)

		// The history log and its images live in the base directory.
		hist, err := history.New(h.Path(), store.HistoryMaxEntries(), logger)
		if err != nil {
			return err
		}

		state := app.New(store, hist, &shell.System{}, logger)

		preferred := servePort
		if preferred <= 0 {
			preferred = store.ServerPort()
		}

		srv, err := server.New(server.Config{
			PreferredPort: preferred,
			App:           state,
			Home:          h,
			ConfigPath:    configPath,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Preferred port (0 = server_port from config)")

	rootCmd.AddCommand(serveCmd)
}
