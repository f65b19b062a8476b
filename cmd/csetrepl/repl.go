package main

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/llxisdsh/cset"
	"github.com/llxisdsh/cset/metrics"
)

const defaultListLimit = 100

var errUsage = errors.New("usage")

// keyCodec converts between command arguments and set keys.
type keyCodec[K cmp.Ordered] struct {
	kind   string
	parse  func(s string) (K, error)
	random func() K
	seq    func(i int) K
}

func stringKeys() keyCodec[string] {
	return keyCodec[string]{
		kind:   "string",
		parse:  func(s string) (string, error) { return s, nil },
		random: uuid.NewString,
		seq:    func(i int) string { return "k" + strconv.Itoa(i) },
	}
}

func intKeys() keyCodec[int] {
	return keyCodec[int]{
		kind:   "int",
		parse:  strconv.Atoi,
		random: func() int { return int(uuid.New().ID()) },
		seq:    func(i int) int { return i },
	}
}

// REPL is the interactive command loop over one set.
type REPL[K cmp.Ordered] struct {
	set     *cset.Set[K]
	keys    keyCodec[K]
	name    string
	reg     *prom.Registry
	out     io.Writer
	log     *slog.Logger
	history string
	liner   *liner.State
}

func newREPL[K cmp.Ordered](cfg Config, keys keyCodec[K], out io.Writer, log *slog.Logger) *REPL[K] {
	s := cset.New[K](cfg.options()...)
	reg := prom.NewRegistry()
	reg.MustRegister(metrics.NewSetCollector(cfg.Name, s.Stats))
	return &REPL[K]{
		set:     s,
		keys:    keys,
		name:    cfg.Name,
		reg:     reg,
		out:     out,
		log:     log,
		history: cfg.History,
	}
}

// Run starts the REPL loop.
func (r *REPL[K]) Run() error {
	// Set up liner for readline-style input
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(completer)

	if r.history != "" {
		if f, err := os.Open(r.history); err == nil {
			if _, err := r.liner.ReadHistory(f); err != nil {
				r.log.Debug("history not loaded", "path", r.history, "error", err)
			}
			f.Close()
		}
	}

	st := r.set.Stats()
	fmt.Fprintf(r.out, "csetrepl - %s set %q (primary=%d, cellar=%d, max_load=%.2f)\n",
		r.keys.kind, r.name, st.PrimarySlots, st.CellarSlots, st.MaxLoadFactor)
	fmt.Fprintln(r.out, "Type 'help' for available commands.")
	fmt.Fprintln(r.out)

	for {
		line, err := r.liner.Prompt("cset> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		if r.execLine(line) {
			fmt.Fprintln(r.out, "Bye!")
			break
		}
	}

	r.saveHistory()
	return nil
}

// execLine runs one command line, reporting failures on the output. It
// returns true when the command asks to quit.
func (r *REPL[K]) execLine(line string) bool {
	quit, err := r.exec(line)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return quit
}

// saveHistory persists command history to disk.
func (r *REPL[K]) saveHistory() {
	if r.history == "" {
		return
	}
	var buf bytes.Buffer
	if _, err := r.liner.WriteHistory(&buf); err != nil {
		r.log.Debug("history not written", "error", err)
		return
	}
	if err := atomic.WriteFile(r.history, &buf); err != nil {
		r.log.Warn("saving history failed", "path", r.history, "error", err)
	}
}

var commands = []string{
	"add", "del", "delete", "has", "find",
	"ls", "list", "len", "count", "dump", "stats", "check",
	"bulk", "seq", "save", "load", "clear", "metrics",
	"help", "exit", "quit", "q",
}

// completer provides tab completion for commands.
func completer(line string) []string {
	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

// exec dispatches one command. It returns true when the command asks to
// quit.
func (r *REPL[K]) exec(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		return true, nil
	case "help", "?":
		r.printHelp()
		return false, nil
	case "add":
		return false, r.cmdAdd(args)
	case "del", "delete":
		return false, r.cmdDelete(args)
	case "has":
		return false, r.cmdHas(args)
	case "find":
		return false, r.cmdFind(args)
	case "ls", "list":
		return false, r.cmdList(args)
	case "len", "count":
		fmt.Fprintln(r.out, r.set.Len())
		return false, nil
	case "dump":
		return false, r.set.Dump(r.out)
	case "stats":
		st := r.set.Stats()
		fmt.Fprint(r.out, st.ToString())
		return false, nil
	case "check":
		return false, r.cmdCheck()
	case "bulk":
		return false, r.cmdBulk(args)
	case "seq":
		return false, r.cmdSeq(args)
	case "save":
		return false, r.cmdSave(args)
	case "load":
		return false, r.cmdLoad(args)
	case "clear":
		r.set.Clear()
		fmt.Fprintln(r.out, "OK")
		return false, nil
	case "metrics":
		return false, metrics.WriteText(r.out, r.reg)
	default:
		return false, fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (r *REPL[K]) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  add <key>...          Insert keys")
	fmt.Fprintln(r.out, "  del <key>...          Erase keys")
	fmt.Fprintln(r.out, "  has <key>             Report whether a key is present")
	fmt.Fprintln(r.out, "  find <key>            Show a key's position in slot order")
	fmt.Fprintln(r.out, "  ls [limit]            List keys in slot order")
	fmt.Fprintln(r.out, "  len                   Count keys")
	fmt.Fprintln(r.out, "  dump                  Print every slot with its chain links")
	fmt.Fprintln(r.out, "  stats                 Show set statistics")
	fmt.Fprintln(r.out, "  check                 Verify chain invariants")
	fmt.Fprintln(r.out, "  bulk <count>          Insert N random keys")
	fmt.Fprintln(r.out, "  seq <count> [start]   Insert N sequential keys")
	fmt.Fprintln(r.out, "  save <file>           Write a JSON or YAML snapshot")
	fmt.Fprintln(r.out, "  load <file>           Merge keys from a snapshot")
	fmt.Fprintln(r.out, "  clear                 Remove all keys")
	fmt.Fprintln(r.out, "  metrics               Print Prometheus metrics")
	fmt.Fprintln(r.out, "  help                  Show this help")
	fmt.Fprintln(r.out, "  exit / quit / q       Exit")
}

func (r *REPL[K]) parseKeys(args []string) ([]K, error) {
	keys := make([]K, 0, len(args))
	for _, a := range args {
		k, err := r.keys.parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid %s key %q: %w", r.keys.kind, a, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *REPL[K]) cmdAdd(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: add <key>...", errUsage)
	}
	keys, err := r.parseKeys(args)
	if err != nil {
		return err
	}
	n := r.set.InsertAll(keys...)
	fmt.Fprintf(r.out, "added %d\n", n)
	return nil
}

func (r *REPL[K]) cmdDelete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: del <key>...", errUsage)
	}
	keys, err := r.parseKeys(args)
	if err != nil {
		return err
	}
	n := 0
	for _, k := range keys {
		n += r.set.Erase(k)
	}
	fmt.Fprintf(r.out, "deleted %d\n", n)
	return nil
}

func (r *REPL[K]) cmdHas(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: has <key>", errUsage)
	}
	keys, err := r.parseKeys(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.set.Contains(keys[0]))
	return nil
}

func (r *REPL[K]) cmdFind(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: find <key>", errUsage)
	}
	keys, err := r.parseKeys(args)
	if err != nil {
		return err
	}
	target := r.set.Find(keys[0])
	if target.IsEnd() {
		fmt.Fprintln(r.out, "not found")
		return nil
	}
	pos := 0
	for it := r.set.Begin(); !it.Equal(target); it = it.Next() {
		pos++
	}
	fmt.Fprintf(r.out, "%v at position %d of %d\n", target.Key(), pos, r.set.Len())
	return nil
}

func (r *REPL[K]) cmdList(args []string) error {
	limit := defaultListLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: ls [limit]", errUsage)
		}
		limit = n
	}
	shown := 0
	for k := range r.set.All() {
		if shown == limit {
			break
		}
		fmt.Fprintln(r.out, k)
		shown++
	}
	fmt.Fprintf(r.out, "(%d of %d)\n", shown, r.set.Len())
	return nil
}

func (r *REPL[K]) cmdCheck() error {
	if err := r.set.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "OK")
	return nil
}

func parseCount(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	return n, nil
}

func (r *REPL[K]) cmdBulk(args []string) error {
	n, err := parseCount(args, "bulk <count>")
	if err != nil {
		return err
	}
	start := time.Now()
	r.set.Reserve(r.set.Len() + n)
	added := 0
	for range n {
		if r.set.Add(r.keys.random()) {
			added++
		}
	}
	elapsed := time.Since(start)
	r.log.Debug("bulk insert", "requested", n, "added", added, "elapsed", elapsed)
	fmt.Fprintf(r.out, "added %d in %v\n", added, elapsed.Round(time.Microsecond))
	return nil
}

func (r *REPL[K]) cmdSeq(args []string) error {
	n, err := parseCount(args, "seq <count> [start]")
	if err != nil {
		return err
	}
	from := 0
	if len(args) > 1 {
		if from, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: seq <count> [start]", errUsage)
		}
	}
	added := 0
	for i := range n {
		if r.set.Add(r.keys.seq(from + i)) {
			added++
		}
	}
	fmt.Fprintf(r.out, "added %d\n", added)
	return nil
}
