// csetrepl is an interactive shell over a coalesced-hashing set. It is
// meant for poking at chain layouts: insert colliding keys, erase them and
// watch the chains get repaired with dump.
//
// Usage:
//
//	csetrepl [options]                 Start the REPL
//	csetrepl [options] -c "add a b"    Run commands and exit
//
// Options:
//
//	    --config         Config file (default: .cset.json if present)
//	-i, --int            Use int keys instead of strings
//	    --min-capacity   Smallest primary region size
//	    --max-load       Load factor that triggers growth
//	    --cellar         Cellar size as a fraction of the primary region
//	    --history        History file (default: ~/.csetrepl_history)
//	-c, --command        Run a command instead of the REPL (repeatable)
//	-v, --verbose        Debug logging on stderr
//
// Commands are listed by 'help' inside the REPL.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds parsed command-line flags.
type options struct {
	configPath string
	overrides  Config
	commands   []string
	verbose    bool
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("csetrepl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "config file")
	intKeys := fs.BoolP("int", "i", false, "use int keys")
	minCapacity := fs.Int("min-capacity", 0, "smallest primary region size")
	maxLoad := fs.Float64("max-load", 0, "load factor that triggers growth")
	cellar := fs.Float64("cellar", 0, "cellar size as a fraction of the primary region")
	history := fs.String("history", "", "history file")
	commands := fs.StringArrayP("command", "c", nil, "run a command instead of the REPL")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	opts := options{
		configPath: *configPath,
		commands:   *commands,
		verbose:    *verbose,
	}
	opts.overrides.IntKeys = *intKeys
	opts.overrides.MinCapacity = *minCapacity
	opts.overrides.MaxLoadFactor = *maxLoad
	opts.overrides.History = *history
	if fs.Changed("cellar") {
		opts.overrides.CellarRatio = cellar
	}
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func run(args []string, out, errOut io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	logger := newLogger(errOut, opts.verbose)

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	cfg, source, err := LoadConfig(workDir, opts.configPath)
	if err != nil {
		return err
	}
	cfg = mergeConfig(cfg, opts.overrides)
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	logger.Debug("configuration loaded", "source", source, "int_keys", cfg.IntKeys,
		"min_capacity", cfg.MinCapacity, "max_load_factor", cfg.MaxLoadFactor)

	if cfg.IntKeys {
		return start(newREPL(cfg, intKeys(), out, logger), opts.commands)
	}
	return start(newREPL(cfg, stringKeys(), out, logger), opts.commands)
}

type runner interface {
	Run() error
	exec(line string) (bool, error)
}

// start runs the given commands in order, or the interactive loop when
// there are none. A failing command stops the batch.
func start(r runner, commands []string) error {
	if len(commands) == 0 {
		return r.Run()
	}
	for _, c := range commands {
		quit, err := r.exec(c)
		if err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		if quit {
			return nil
		}
	}
	return nil
}
