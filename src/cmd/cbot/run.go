package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/phroun/cbot"
)

// runOptions are the flags shared by run, resume and watch
type runOptions struct {
	entry      string
	timer      int
	ticks      int
	save       string
	encoding   string
	debug      bool
	categories string
}

func addRunFlags(fs *flag.FlagSet, opts *runOptions) {
	fs.StringVar(&opts.entry, "entry", "", "Extern function to start")
	fs.IntVar(&opts.timer, "timer", cliConfig.Timer, "Instructions per tick")
	fs.IntVar(&opts.ticks, "ticks", 0, "Stop after this many ticks (0 runs to completion)")
	fs.StringVar(&opts.save, "save", "", "Write the state of a suspended routine to this file")
	fs.StringVar(&opts.encoding, "encoding", cliConfig.Encoding, "Source encoding")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&opts.debug, "d", false, "Enable debug output (short)")
	fs.StringVar(&opts.categories, "cat", strings.Join(cliConfig.DebugCategories, ","), "Log categories shown with -debug")
}

// parseCategories turns a comma separated list into log categories
func parseCategories(list string) []cbot.LogCategory {
	var cats []cbot.LogCategory
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(strings.ToLower(name)); name != "" {
			cats = append(cats, cbot.LogCategory(name))
		}
	}
	return cats
}

// newEnvironment creates an environment with the standard libraries
func newEnvironment(opts *runOptions) *cbot.Environment {
	cfg := cbot.DefaultConfig()
	cfg.Debug = opts.debug
	cfg.DebugCategories = parseCategories(opts.categories)
	if opts.timer >= 0 {
		cfg.InitTimer = opts.timer
	}
	env := cbot.NewEnvironment(cfg)
	env.RegisterStringLib()
	env.RegisterMathLib()
	env.RegisterOutputLib(os.Stdout)
	return env
}

// compileScript compiles source into a new program of env, logging any
// error with source context
func compileScript(env *cbot.Environment, path, source string) (*cbot.Program, []string, bool) {
	prog := env.NewProgram(path)
	externs, err := prog.Compile(source, nil)
	if err != nil {
		var cerr *cbot.CBotError
		if errors.As(err, &cerr) {
			env.Logger().CompileError(cerr, sourceLines(source))
		} else {
			errorPrintf("%s: %v\n", path, err)
		}
		return prog, nil, false
	}
	return prog, externs, true
}

// chooseEntry picks the function to start: the requested one, else main,
// else the first extern function
func chooseEntry(requested string, externs []string) (string, error) {
	switch {
	case requested != "":
		return requested, nil
	case slices.Contains(externs, "main"):
		return "main", nil
	case len(externs) > 0:
		return externs[0], nil
	}
	return "", errors.New("no extern function to run")
}

func runCommand(ctx context.Context, args []string) int {
	opts := &runOptions{}
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	addRunFlags(fs, opts)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		errorPrintf("Error: run needs exactly one script\n")
		return 2
	}
	script := findScriptFile(fs.Arg(0))
	if script == "" {
		errorPrintf("Error: Script file not found: %s\n", fs.Arg(0))
		return 1
	}
	return runScript(ctx, script, opts)
}

// runScript compiles and runs one script file
func runScript(ctx context.Context, script string, opts *runOptions) int {
	source, err := readSource(script, opts.encoding)
	if err != nil {
		errorPrintf("Error reading script file: %v\n", err)
		return 1
	}

	env := newEnvironment(opts)
	defer env.Free()
	prog, externs, ok := compileScript(env, script, source)
	if !ok {
		return 1
	}
	entry, err := chooseEntry(opts.entry, externs)
	if err != nil {
		errorPrintf("Error: %s: %v\n", script, err)
		return 1
	}
	if err := prog.Start(entry); err != nil {
		errorPrintf("Error: %s: cannot start %s: %v\n", script, entry, err)
		return 1
	}
	return execute(ctx, prog, opts, saveHeader{Script: script, Encoding: opts.encoding})
}

func resumeCommand(ctx context.Context, args []string) int {
	opts := &runOptions{}
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	addRunFlags(fs, opts)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		errorPrintf("Error: resume needs a state file and optionally the script\n")
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		errorPrintf("Error: %v\n", err)
		return 1
	}
	defer f.Close()
	r := bufio.NewReader(f)
	hdr, err := readSaveHeader(r)
	if err != nil {
		errorPrintf("Error: %s: %v\n", fs.Arg(0), err)
		return 1
	}
	if fs.NArg() == 2 {
		hdr.Script = fs.Arg(1)
	}
	source, err := readSource(hdr.Script, hdr.Encoding)
	if err != nil {
		errorPrintf("Error reading script file: %v\n", err)
		return 1
	}

	env := newEnvironment(opts)
	defer env.Free()
	prog, _, ok := compileScript(env, hdr.Script, source)
	if !ok {
		return 1
	}
	if err := env.RestoreSession(r, nil); err != nil {
		errorPrintf("Error: cannot restore %s: %v\n", fs.Arg(0), err)
		return 1
	}
	if !prog.IsRunning() {
		errorPrintf("%s: nothing to resume\n", fs.Arg(0))
		return 0
	}
	if opts.save == "" {
		opts.save = fs.Arg(0)
	}
	return execute(ctx, prog, opts, hdr)
}

// execute runs ticks until the routine ends, the tick limit is reached or
// ctx is cancelled
func execute(ctx context.Context, prog *cbot.Program, opts *runOptions, hdr saveHeader) int {
	for tick := 1; ; tick++ {
		if prog.Run(nil, opts.timer) {
			return report(prog)
		}
		if opts.ticks > 0 && tick >= opts.ticks {
			return suspend(prog, opts, hdr, 0)
		}
		select {
		case <-ctx.Done():
			return suspend(prog, opts, hdr, 130)
		default:
		}
	}
}

// report prints the outcome of a finished routine
func report(prog *cbot.Program) int {
	if err := prog.Error(); err != nil {
		prog.Environment().Logger().RuntimeError(err, sourceLines(prog.Source()))
		return 1
	}
	if r := prog.Result(); r != nil && r.Type() != cbot.TypVoid {
		colorPrintf(getEqualsColor(), "= ")
		fmt.Println(r.String())
	}
	return 0
}

// suspend reports where the routine stopped and saves it when asked to
func suspend(prog *cbot.Program, opts *runOptions, hdr saveHeader, code int) int {
	fn, start, end := prog.GetRunPos()
	pos := cbot.PositionAt(prog.Source(), prog.Name(), start, end)
	colorPrintf(getNoticeColor(), "suspended in %s at line %d, column %d\n", fn, pos.Line, pos.Column)
	if opts.save == "" {
		return code
	}
	if err := writeState(opts.save, prog.Environment(), hdr); err != nil {
		errorPrintf("Error: cannot save state: %v\n", err)
		return 1
	}
	colorPrintf(getNoticeColor(), "state saved to %s\n", opts.save)
	return code
}

// saveMagic starts every state file written by the CLI
const saveMagic = "CBOTSTATE"

const saveHeaderVersion = 1

// saveHeader records what is needed to rebuild the environment of a
// saved session
type saveHeader struct {
	Script   string
	Encoding string
}

// writeState writes the header and the session of env to path, replacing
// the file only once everything is written
func writeState(path string, env *cbot.Environment, hdr saveHeader) error {
	script, err := filepath.Abs(hdr.Script)
	if err != nil {
		script = hdr.Script
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cbot-state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	err = writeSaveHeader(w, saveHeader{Script: script, Encoding: hdr.Encoding})
	if err == nil {
		err = env.SaveSession(w)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeSaveHeader(w *bufio.Writer, hdr saveHeader) error {
	if err := cbot.WriteString(w, saveMagic); err != nil {
		return err
	}
	if err := cbot.WriteWord(w, saveHeaderVersion); err != nil {
		return err
	}
	if err := cbot.WriteString(w, hdr.Script); err != nil {
		return err
	}
	return cbot.WriteString(w, hdr.Encoding)
}

func readSaveHeader(r cbot.StateReader) (saveHeader, error) {
	var hdr saveHeader
	magic, err := cbot.ReadString(r)
	if err != nil || magic != saveMagic {
		return hdr, errors.New("not a cbot state file")
	}
	v, err := cbot.ReadWord(r)
	if err != nil {
		return hdr, err
	}
	if v != saveHeaderVersion {
		return hdr, fmt.Errorf("unsupported state file version %d", v)
	}
	if hdr.Script, err = cbot.ReadString(r); err != nil {
		return hdr, err
	}
	hdr.Encoding, err = cbot.ReadString(r)
	return hdr, err
}
