// Package main provides the IntelliScript client entrypoint: an
// interactive TUI by default, plus headless subcommands for scripting.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/intelliscript/tui/internal/api"
	"github.com/intelliscript/tui/internal/app"
	"github.com/intelliscript/tui/internal/config"
	"github.com/intelliscript/tui/internal/export"
	"github.com/intelliscript/tui/internal/logging"
)

var version = "0.1.0"

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "intelliscript",
		Short: "Terminal client for the IntelliScript video processing backend",
		Long: `IntelliScript client: submit a video (file or URL), watch the
processing pipeline, then browse the transcript, summary and chapters,
ask questions about the content, and export the results.

Run without arguments for the interactive TUI. The status, ask and
export subcommands work against an existing session without the TUI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.New(cfg.ServerURL, cfg.RequestTimeout)
			logger := logging.New(cfg.LogFile, cfg.LogLevel)
			program := tea.NewProgram(app.New(client, cfg, logger), tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "backend base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.Language, "language", cfg.Language, "target language hint")
	rootCmd.PersistentFlags().StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory for exported artifacts")

	rootCmd.AddCommand(statusCmd(&cfg))
	rootCmd.AddCommand(askCmd(&cfg))
	rootCmd.AddCommand(exportCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func statusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Print the current processing status of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.New(cfg.ServerURL, cfg.RequestTimeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			report, err := client.Progress(ctx, args[0])
			if err != nil {
				return err
			}

			stage := report.Stage
			if stage == "" {
				stage = "Processing"
			}
			switch {
			case report.Terminal():
				color.Green("%s: completed (%d%%)", stage, report.Progress)
			case report.Progress < 0:
				color.Red("%s: failed — %s", stage, report.Message)
			default:
				fmt.Printf("%s: %d%%\n", stage, report.Progress)
			}
			return nil
		},
	}
}

func askCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <session-id> <question>",
		Short: "Ask a question about a completed session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args[1:], " "))
			if question == "" {
				return fmt.Errorf("question must not be blank")
			}

			client := api.New(cfg.ServerURL, cfg.RequestTimeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			answer, err := client.Ask(ctx, args[0], question)
			if err != nil {
				return err
			}

			fmt.Println(answer.Answer)
			if len(answer.Context) > 0 {
				fmt.Println()
				color.Cyan("Sources:")
				for _, sn := range answer.Context {
					if sn.Metadata.Speaker != "" {
						color.Yellow("  %s [%s]", sn.Metadata.Speaker, formatSeconds(sn.Metadata.StartTime))
					}
					fmt.Printf("  %s\n", sn.Content)
				}
			}
			return nil
		},
	}
}

func exportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export <session-id> <format>",
		Short: "Export a completed session (" + strings.Join(export.Formats, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, format := args[0], args[1]
			if !export.Valid(format) {
				return fmt.Errorf("unsupported format %q (want one of %s)",
					format, strings.Join(export.Formats, ", "))
			}

			client := api.New(cfg.ServerURL, cfg.RequestTimeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			payload, err := client.Export(ctx, sessionID, format)
			if err != nil {
				return err
			}
			path, err := export.Save(cfg.ExportDir, format, payload)
			if err != nil {
				return err
			}

			color.Green("Saved %s", path)
			return nil
		},
	}
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
