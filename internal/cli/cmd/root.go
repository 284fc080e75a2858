package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/config"
	"github.com/shoplist/api/internal/cli/output"
)

var (
	flagJSON      bool
	flagServerURL string

	cfg       *config.Config
	apiClient *api.Client

	stdin io.Reader = os.Stdin
)

var rootCmd = &cobra.Command{
	Use:   "shoplist",
	Short: "Shared household shopping lists from the terminal",
	Long: `shoplist talks to a shoplist server so you can manage households,
shopping lists and items without leaving the terminal.

Get started:
  shoplist register --username alice --email alice@example.com
  shoplist login --email alice@example.com
  shoplist households create "Home"      (selects it as current)
  shoplist lists create "Weekly shop"
  shoplist items add <list-id> Milk --amount "2 l"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		apiClient = api.NewClient(cfg.ServerURL, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func requireAuth() error {
	if cfg == nil || !cfg.HasToken() {
		return fmt.Errorf("not authenticated: run \"shoplist login\" first")
	}
	return nil
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(output.Stdout, format, args...)
}

// prompt reads one line from stdin after printing label.
func prompt(reader *bufio.Reader, label string) string {
	printf("%s", label)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(answer)
}

func confirm(question string) bool {
	answer := strings.ToLower(prompt(bufio.NewReader(stdin), question+" [y/N] "))
	return answer == "y" || answer == "yes"
}
