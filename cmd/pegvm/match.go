package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clarete/pegvm"
)

type matchArgs struct {
	inputPath string
	maxSteps  int
	search    bool
	lines     bool
	jobs      int
	trace     bool
}

var matchParams matchArgs

var matchCommand = &cobra.Command{
	Use:   "match",
	Short: "Match the grammar against an input",
	Long: `Match the grammar against the contents of --input (or stdin).

With --lines, every line of the input is matched separately and
concurrently.  The exit status is 1 when any match fails.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := compileGrammar(cmd)
		if err != nil {
			return err
		}
		input, err := readInput(matchParams.inputPath)
		if err != nil {
			return err
		}
		var ok bool
		if matchParams.lines {
			ok, err = matchLines(cmd.Context(), p, input)
		} else {
			ok, err = matchOne(p, input)
		}
		if err != nil {
			return err
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	fs := matchCommand.Flags()
	fs.StringVarP(&matchParams.inputPath, "input", "i", "", "Path to the input file, stdin if empty")
	fs.IntVar(&matchParams.maxSteps, "max-steps", 0, "Instructions a single match can execute, 0 means no limit")
	fs.BoolVarP(&matchParams.search, "search", "s", false, "Look for the first position where the grammar matches")
	fs.BoolVarP(&matchParams.lines, "lines", "l", false, "Match each line of the input separately")
	fs.IntVarP(&matchParams.jobs, "jobs", "j", 0, "Lines matched at the same time, 0 means no limit")
	fs.BoolVar(&matchParams.trace, "trace", false, "Log every instruction executed by the virtual machine")
	rootCommand.AddCommand(matchCommand)
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = io.ReadAll(bufio.NewReader(os.Stdin))
	} else {
		data, err = os.ReadFile(path)
	}
	return string(data), err
}

func matchOne(p *pegvm.Program, input string) (bool, error) {
	vm := pegvm.NewVirtualMachine(p)
	if matchParams.maxSteps > 0 {
		vm.SetMaxSteps(matchParams.maxSteps)
	}
	if matchParams.trace {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		vm.SetLogger(logger.Level(zerolog.TraceLevel))
	}

	runes := []rune(input)
	var (
		r     pegvm.MatchResult
		err   error
		start int
	)
	if matchParams.search {
		start, r, err = vm.FindRunes(runes)
	} else {
		r, err = vm.MatchRunes(runes)
	}
	if err != nil {
		return false, err
	}
	if !r.Matched {
		fmt.Println(painter().Paint(painter().Theme.Error, "no match"))
		return false, nil
	}
	printResult(runes, start, r)
	return true, nil
}

func matchLines(ctx context.Context, p *pegvm.Program, input string) (bool, error) {
	if matchParams.maxSteps > 0 {
		logger.Warn().Msg("--max-steps is taken from the configuration when matching lines")
	}
	lines := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	results, err := pegvm.MatchAll(ctx, p, lines, matchParams.jobs)
	if err != nil {
		return false, err
	}
	ok := true
	pt := painter()
	for i, r := range results {
		fmt.Print(pt.Paint(pt.Theme.Muted, "%d: ", i+1))
		if !r.Matched {
			ok = false
			fmt.Println(pt.Paint(pt.Theme.Error, "no match"))
			continue
		}
		printResult([]rune(lines[i]), 0, r)
	}
	return ok, nil
}

// printResult shows the span of a match and its captures.  Positions
// in `r` are relative to `input`, and `start` is where the match
// begins.
func printResult(input []rune, start int, r pegvm.MatchResult) {
	pt := painter()
	fmt.Printf("%s %s\n",
		pt.Paint(pt.Theme.Success, "match"),
		pt.Paint(pt.Theme.Span, "%d..%d", start, r.End))
	for _, tree := range r.Tree() {
		printTree(pt, input, tree, 1)
	}
}
