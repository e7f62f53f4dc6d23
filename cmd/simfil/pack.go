package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Klebert-Engineering/simfil/pkg/codec"
)

func newPackCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pack <document>",
		Short: "Convert a document to the binary pool format",
		Long: `Decode a JSON or YAML document and write it back as a binary model
pool (.smfl), which query and repl load without re-parsing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := loadDocument(args[0])
			if err != nil {
				return err
			}

			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".smfl"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := codec.EncodePool(f, pool); err != nil {
				f.Close()
				return fmt.Errorf("encoding %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: input with .smfl extension)")
	return cmd
}
