package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)
	cfg := defaultConfig()

	cmd := &cobra.Command{
		Use:   "simfil",
		Short: "Query and filter tree-shaped data",
		Long: `simfil compiles and evaluates queries against JSON or YAML documents.

Examples:
  simfil query -f doc.json 'a[?_ > 1]'
  simfil repl -f doc.yaml
  simfil ast 'a.b[0]'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg, cfgFile); err != nil {
				return err
			}
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./simfil.yaml or ~/.config/simfil/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug diagnostics")

	cmd.AddCommand(newQueryCmd(cfg))
	cmd.AddCommand(newReplCmd(cfg))
	cmd.AddCommand(newASTCmd())
	cmd.AddCommand(newPackCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
