// Command ebs runs EBS scripts and provides an interactive REPL.
//
//	ebs                    start the REPL
//	ebs script.ebs         run a script
//	ebs --watch script.ebs re-run the script whenever it changes
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/peterh/liner"

	"github.com/ebs-lang/ebscript"
)

const (
	promptMain = "ebs> "
	promptCont = "...> "
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file (default ~/.ebs.toml)")
		watch      = flag.Bool("watch", false, "re-run the script when it changes")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := ebscript.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		os.Exit(runREPL(cfg, logger))
	}

	script := flag.Arg(0)
	if *watch {
		os.Exit(runWatch(script, cfg, logger))
	}
	os.Exit(runOnce(script, cfg, logger))
}

func runOnce(script string, cfg *ebscript.Config, logger *slog.Logger) int {
	rt := ebscript.NewRuntime(
		ebscript.WithConfig(cfg),
		ebscript.WithLogger(logger),
	)
	defer rt.Close()
	if _, err := rt.RunFile(script); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runWatch re-executes the script on every write to it. Each run gets a
// fresh Runtime so stale timers and screens from the previous run cannot
// leak into the next.
func runWatch(script string, cfg *ebscript.Config, logger *slog.Logger) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer watcher.Close()

	// watch the directory, not the file: editors replace files on save
	dir := filepath.Dir(script)
	if err := watcher.Add(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	target, err := filepath.Abs(script)
	if err != nil {
		target = script
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runOnce(script, cfg, logger)
	logger.Info("watching for changes", "script", script)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			evPath, err := filepath.Abs(ev.Name)
			if err != nil {
				evPath = ev.Name
			}
			if evPath != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Info("change detected, re-running", "script", script)
			runOnce(script, cfg, logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			logger.Error("watch error", "err", err)
		case <-sig:
			return 0
		}
	}
}

func runREPL(cfg *ebscript.Config, logger *slog.Logger) int {
	rt := ebscript.NewRuntime(
		ebscript.WithConfig(cfg),
		ebscript.WithLogger(logger),
	)
	defer rt.Close()

	ln := liner.NewLiner()
	defer func() {
		if f, err := os.Create(cfg.History()); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
		_ = ln.Close()
	}()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		i := strings.LastIndexAny(line, " \t(")
		prefix := line[i+1:]
		var out []string
		for _, name := range rt.Complete(prefix) {
			out = append(out, line[:i+1]+name)
		}
		return out
	})
	if f, err := os.Open(cfg.History()); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Printf("EBS %s REPL. Ctrl+D exits; :help <name> shows builtin help.\n", ebscript.EngineVersion)
	for {
		src, ok := readStatement(ln)
		if !ok {
			return 0
		}
		if src == "" {
			continue
		}
		ln.AppendHistory(src)

		if strings.HasPrefix(src, ":") {
			replCommand(rt, src)
			continue
		}
		v, err := rt.Run(src, "<repl>")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if !v.IsNull() {
			fmt.Println(ebscript.Display(v))
		}
	}
}

// readStatement keeps prompting while the input still fails to parse with
// a premature-end error, so multi-line blocks can be typed naturally.
func readStatement(ln *liner.State) (string, bool) {
	var buf strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			return "", false
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
		src := strings.TrimSpace(buf.String())
		if src == "" || strings.HasPrefix(src, ":") {
			return src, true
		}
		if _, err := ebscript.Parse(src, "<repl>"); err == nil || !premature(err) {
			return src, true
		}
		prompt = promptCont
	}
}

func premature(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "end of source") ||
		strings.Contains(msg, "unterminated") ||
		strings.Contains(msg, `found ""`)
}

func replCommand(rt *ebscript.Runtime, src string) {
	fields := strings.Fields(src)
	switch fields[0] {
	case ":help":
		if len(fields) < 2 {
			fmt.Println("usage: :help <builtin>, e.g. :help crypto.sha256")
			return
		}
		if text, ok := rt.Help(fields[1]); ok {
			fmt.Println(text)
		} else {
			fmt.Printf("no builtin named %q\n", fields[1])
		}
	case ":builtins":
		cat := ""
		if len(fields) > 1 {
			cat = fields[1]
		}
		for _, n := range rt.Builtins() {
			if cat == "" || strings.HasPrefix(n, cat+".") {
				fmt.Println(n)
			}
		}
	case ":quit":
		os.Exit(0)
	default:
		fmt.Printf("unknown command %s (try :help, :builtins, :quit)\n", fields[0])
	}
}
