package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clarete/pegvm"
	"github.com/clarete/pegvm/ascii"
)

type commonArgs struct {
	grammarPath string
	grammarText string
	configPath  string
	optimize    int
	noFull      bool
	logLevel    string
	color       string
}

var (
	common commonArgs
	logger zerolog.Logger
)

var rootCommand = &cobra.Command{
	Use:           "pegvm",
	Short:         "Compile parsing expression grammars and match them against input",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(common.logLevel)
		if err != nil {
			return err
		}
		if level == zerolog.TraceLevel {
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		}
		logger = newLogger(level)
		return nil
	},
}

func init() {
	addCommonFlags(rootCommand.PersistentFlags(), &common)
}

func addCommonFlags(fs *pflag.FlagSet, a *commonArgs) {
	fs.StringVarP(&a.grammarPath, "grammar", "g", "", "Path to the grammar file")
	fs.StringVarP(&a.grammarText, "expr", "e", "", "Grammar text given inline")
	fs.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML file with configuration values")
	fs.IntVarP(&a.optimize, "optimize", "O", 1, "Optimization level of the compiler (0 or 1)")
	fs.BoolVar(&a.noFull, "no-full-captures", false, "Always emit open/close pairs for captures")
	fs.StringVar(&a.logLevel, "log-level", "info", "Minimum level of log messages: trace, debug, info, warn or error")
	fs.StringVar(&a.color, "color", "auto", "Colorize output: auto, always or never")
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.NoColor = !isatty.IsTerminal(os.Stderr.Fd())
	})).Level(level).With().Timestamp().Logger()
}

// painter decides whether colors should be used for writing to
// stdout
func painter() ascii.Painter {
	enabled := false
	switch common.color {
	case "always":
		enabled = true
	case "auto":
		enabled = isatty.IsTerminal(os.Stdout.Fd())
	}
	return ascii.Painter{Enabled: enabled, Theme: ascii.DefaultTheme}
}

// loadConfig builds the configuration from the defaults, then the
// YAML file and then the flags explicitly set in the command line
func loadConfig(cmd *cobra.Command) (*pegvm.Config, error) {
	cfg := pegvm.NewConfig()
	if common.configPath != "" {
		data, err := os.ReadFile(common.configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.LoadYAML(data); err != nil {
			return nil, fmt.Errorf("%s: %w", common.configPath, err)
		}
		logger.Debug().Str("path", common.configPath).Msg("configuration loaded")
	}
	if cmd.Flags().Changed("optimize") {
		cfg.SetInt("compiler.optimize", common.optimize)
	}
	if common.noFull {
		cfg.SetBool("compiler.full_captures", false)
	}
	return cfg, nil
}

func readGrammar() (string, error) {
	switch {
	case common.grammarText != "" && common.grammarPath != "":
		return "", fmt.Errorf("--grammar and --expr can't be used together")
	case common.grammarText != "":
		return common.grammarText, nil
	case common.grammarPath != "":
		data, err := os.ReadFile(common.grammarPath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("grammar not informed, use --grammar or --expr")
	}
}

func compileGrammar(cmd *cobra.Command) (*pegvm.Program, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	text, err := readGrammar()
	if err != nil {
		return nil, err
	}
	p, err := pegvm.CompileString(text, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("instructions", p.Len()).Msg("grammar compiled")
	return p, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCommand.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "error: %s", err))
		os.Exit(2)
	}
}
