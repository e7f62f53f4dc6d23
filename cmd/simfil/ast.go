package main

import (
	"fmt"

	"github.com/spf13/cobra"

	simfil "github.com/Klebert-Engineering/simfil"
)

func newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <expression>",
		Short: "Print the compiled form of a query",
		Long: `Compile an expression and print its S-expression dump, after constant
folding. Useful for checking how paths and operators were parsed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := simfil.Compile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), expr.Dump())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the simfil version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), simfil.Version())
		},
	}
}
