package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
)

var (
	cfg        *config.Config
	logger     *slog.Logger
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "overtimectl",
	Short: "Overtime application forms from attendance exports",
	Long: `overtimectl reads attendance exports (fixed-width TXT or CSV), computes
overtime and meal allowance, and writes paginated application forms.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = api.NewLogger(cmd.ErrOrStderr(), cfg.SlogLevel())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config path (default ./overtime.yaml)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(paginateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
