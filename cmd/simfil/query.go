package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	simfil "github.com/Klebert-Engineering/simfil"
	"github.com/Klebert-Engineering/simfil/pkg/model"
)

func newQueryCmd(cfg *config) *cobra.Command {
	var docFile string

	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "Compile and evaluate a query",
		Long: `Compile an expression, evaluate it against a document and print the
result sequence. Without -f the query runs against an empty model, which
is still useful for constant expressions and function calls.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m model.Model
			if docFile != "" {
				pool, err := loadDocument(docFile)
				if err != nil {
					return err
				}
				m = pool
			}

			env := simfil.NewEnv()
			expr, err := simfil.CompileWith(env, args[0])
			if err != nil {
				return err
			}
			slog.Debug("compiled", "ast", expr.Dump())

			results := env.EvalAll(expr, m)
			renderResults(cmd.OutOrStdout(), results, cfg.Limit)
			for _, w := range env.Warnings() {
				slog.Warn(w.Message, "detail", w.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&docFile, "file", "f", "", "document to query (.json, .yaml or .smfl)")
	return cmd
}
