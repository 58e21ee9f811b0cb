package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clarete/pegvm"
	"github.com/clarete/pegvm/ascii"
)

var asmOutputPath string

var asmCommand = &cobra.Command{
	Use:   "asm",
	Short: "Print the program compiled from the grammar",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := compileGrammar(cmd)
		if err != nil {
			return err
		}
		if painter().Enabled {
			fmt.Print(p.HighlightPrettyString())
		} else {
			fmt.Print(p.PrettyString())
		}
		fp, err := p.Fingerprint()
		if err != nil {
			return err
		}
		fmt.Printf(";; %d instructions, fingerprint %016x\n", p.Len(), fp)

		if asmOutputPath == "" {
			return nil
		}
		data, err := p.MarshalBinary()
		if err != nil {
			return err
		}
		if err := os.WriteFile(asmOutputPath, data, 0o644); err != nil {
			return err
		}
		logger.Info().Str("path", asmOutputPath).Int("bytes", len(data)).Msg("program written")
		return nil
	},
}

var astCommand = &cobra.Command{
	Use:   "ast",
	Short: "Print the syntax tree of the grammar",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readGrammar()
		if err != nil {
			return err
		}
		node, err := pegvm.ParseGrammar(text)
		if err != nil {
			return err
		}
		if painter().Enabled {
			fmt.Print(pegvm.HighlightPrettyAst(node))
		} else {
			fmt.Print(pegvm.PrettyAst(node))
		}
		return nil
	},
}

func init() {
	asmCommand.Flags().StringVarP(&asmOutputPath, "output", "o", "", "Write the binary encoding of the program to this path")
	rootCommand.AddCommand(asmCommand)
	rootCommand.AddCommand(astCommand)
}

func printTree(pt ascii.Painter, input []rune, t *pegvm.CaptureTree, depth int) {
	c := t.Capture
	label := fmt.Sprintf("#%d", c.Index)
	if c.Name != "" {
		label += " " + c.Name
	}
	fmt.Printf("%s%s %s %q\n",
		strings.Repeat("  ", depth),
		pt.Paint(pt.Theme.Capture, "%s", label),
		pt.Paint(pt.Theme.Span, "%d..%d", c.Range.Start, c.Range.End),
		c.Text(input))
	for _, child := range t.Children {
		printTree(pt, input, child, depth+1)
	}
}
