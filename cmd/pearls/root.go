// Command pearls is a git-native, serverless issue tracker storing its
// state as JSONL under .pearls/. The command surface and global-flag
// plumbing are a single-binary, no-daemon root command.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrorigo/pearls/internal/config"
	"github.com/mrorigo/pearls/internal/store"
	"github.com/mrorigo/pearls/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	pearlsDir    string
	outputFormat string
	noColor      bool
	verbose      bool
	includeArchived bool
	cfg          config.Config
	tel          *telemetry.Setup
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"})
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
)

func render(style lipgloss.Style, s string) string {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return s
	}
	return style.Render(s)
}

var rootCmd = &cobra.Command{
	Use:   "pearls",
	Short: "pearls - a git-native dependency-aware issue tracker",
	Long: `Issues threaded on a dependency graph, stored as one JSONL file per repo.
No server, no database: the Git history is the audit trail and a three-way
merge driver resolves conflicting edits the same way Git resolves text.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if pearlsDir == "" {
			pearlsDir = filepath.Join(".", ".pearls")
		}
		loaded, err := config.Load(filepath.Join(pearlsDir, "config.toml"))
		if err != nil {
			return err
		}
		cfg = loaded
		if !cmd.Flags().Changed("format") {
			outputFormat = string(cfg.OutputFormat)
		}

		setup, err := telemetry.Configure(verbose)
		if err != nil {
			return err
		}
		tel = setup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		tel.Shutdown(context.Background())
	},
}

func newStore() *store.Store {
	return store.New(pearlsDir, cfg.UseIndex)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, render(failStyle, "error: "+err.Error()))
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pearlsDir, "dir", "", "Pearls data directory (default: ./.pearls)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "plain", "Output format: json|table|plain")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose diagnostic logging")
	rootCmd.PersistentFlags().BoolVar(&includeArchived, "include-archived", false, "Include archived records where applicable")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(mergeDriverCmd)
	rootCmd.AddCommand(hooksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
