package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"showroom-workers/internal/common/config"
	"showroom-workers/internal/common/logger"
)

var (
	version    = "dev"
	configPath string
	jsonOutput bool
	verbose    bool
	render     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "showroomctl",
		Short: "Operator tooling for the showroom workers",
		Long: `showroomctl drives the showroom back end without a Zeebe broker:
compare two cars through the chat API, inspect the catalog and stored
surveys, and maintain the activity registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults to configs/config.yaml lookup)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&render, "render", false, "Render markdown answers for the terminal")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "showroomctl %s\n", version)
		},
	})

	rootCmd.AddCommand(
		newCompareCmd(),
		newPollCmd(),
		newCatalogCmd(),
		newSurveyCmd(),
		newRegistryCmd(),
	)
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func cliLogger() logger.Logger {
	if !verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewZapAdapter(logger.NewWithOptions(logger.Options{
		Level:  "debug",
		Format: "console",
		Output: "stderr",
	}))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// markdown writes text, rendered through glamour when --render is set.
func markdown(w io.Writer, text string) error {
	if render {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			if out, err := r.Render(text); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
