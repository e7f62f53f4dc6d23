package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	simfil "github.com/Klebert-Engineering/simfil"
	"github.com/Klebert-Engineering/simfil/pkg/evaluator"
	"github.com/Klebert-Engineering/simfil/pkg/model"
)

const replHelp = `Commands:
  .help           show this help
  .ast <expr>     print the compiled form of an expression
  .load <file>    load a document (.json, .yaml or .smfl)
  .limit [n]      show or set the result row limit (0 = unlimited)
  .quit           exit

Anything else is evaluated as a query against the loaded document.
`

func newReplCmd(cfg *config) *cobra.Command {
	var docFile string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive query shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &repl{
				cfg:    cfg,
				env:    simfil.NewEnv(),
				limit:  cfg.Limit,
				out:    cmd.OutOrStdout(),
				errOut: cmd.ErrOrStderr(),
			}
			if docFile != "" {
				if err := r.load(docFile); err != nil {
					return err
				}
			}
			return r.run()
		},
	}

	cmd.Flags().StringVarP(&docFile, "file", "f", "", "document to query (.json, .yaml or .smfl)")
	return cmd
}

type repl struct {
	cfg    *config
	env    *evaluator.Env
	pool   *model.Pool
	limit  int
	warned int
	out    io.Writer
	errOut io.Writer
}

func (r *repl) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.cfg.Prompt,
		HistoryFile:     r.cfg.History,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem(".help"),
			readline.PcItem(".ast"),
			readline.PcItem(".load"),
			readline.PcItem(".limit"),
			readline.PcItem(".quit"),
		),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(r.out, "simfil %s. Type .help for help.\n", simfil.Version())
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if r.dotCommand(line) {
				return nil
			}
			continue
		}
		r.evalLine(line)
	}
}

// dotCommand handles a meta command and reports whether the REPL
// should exit.
func (r *repl) dotCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit", ".exit":
		return true

	case ".help":
		fmt.Fprint(r.out, replHelp)

	case ".ast":
		query := strings.TrimSpace(strings.TrimPrefix(line, ".ast"))
		if query == "" {
			fmt.Fprintln(r.errOut, "usage: .ast <expression>")
			break
		}
		expr, err := simfil.CompileWith(r.env, query)
		if err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			break
		}
		fmt.Fprintln(r.out, expr.Dump())

	case ".load":
		if len(fields) != 2 {
			fmt.Fprintln(r.errOut, "usage: .load <file>")
			break
		}
		if err := r.load(fields[1]); err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "loaded %s\n", fields[1])

	case ".limit":
		if len(fields) == 1 {
			fmt.Fprintf(r.out, "limit: %d\n", r.limit)
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			fmt.Fprintln(r.errOut, "usage: .limit <n> (0 = unlimited)")
			break
		}
		r.limit = n

	default:
		fmt.Fprintf(r.errOut, "unknown command %s, try .help\n", fields[0])
	}
	return false
}

func (r *repl) load(path string) error {
	pool, err := loadDocument(path)
	if err != nil {
		return err
	}
	r.pool = pool
	return nil
}

func (r *repl) evalLine(query string) {
	expr, err := simfil.CompileWith(r.env, query)
	if err != nil {
		fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return
	}

	var m model.Model
	if r.pool != nil {
		m = r.pool
	}
	renderResults(r.out, r.env.EvalAll(expr, m), r.limit)

	warnings := r.env.Warnings()
	for _, w := range warnings[r.warned:] {
		fmt.Fprintf(r.errOut, "warn: %s %s\n", w.Message, w.Detail)
	}
	r.warned = len(warnings)
}
