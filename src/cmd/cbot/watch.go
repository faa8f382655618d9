package main

import (
	"context"
	"flag"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups the bursts of events editors produce on save
const watchDebounce = 100 * time.Millisecond

func watchCommand(ctx context.Context, args []string) int {
	opts := &runOptions{}
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	addRunFlags(fs, opts)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		errorPrintf("Error: watch needs exactly one script\n")
		return 2
	}
	script := findScriptFile(fs.Arg(0))
	if script == "" {
		errorPrintf("Error: Script file not found: %s\n", fs.Arg(0))
		return 1
	}
	abs, err := filepath.Abs(script)
	if err != nil {
		errorPrintf("Error: %v\n", err)
		return 1
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errorPrintf("Error: cannot watch %s: %v\n", script, err)
		return 1
	}
	defer watcher.Close()
	// Watch the directory: editors often replace the file instead of
	// writing it in place
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		errorPrintf("Error: cannot watch %s: %v\n", script, err)
		return 1
	}

	runOnce := func() {
		// A run never saves in watch mode
		o := *opts
		o.save = ""
		runScript(ctx, script, &o)
		colorPrintf(getNoticeColor(), "watching %s\n", script)
	}
	runOnce()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return 0
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			errorPrintf("watch: %v\n", err)
		case <-pending:
			pending = nil
			runOnce()
		}
	}
}
