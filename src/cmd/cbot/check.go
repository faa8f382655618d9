package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/phroun/cbot"
	"golang.org/x/sync/errgroup"
)

// checkResult is the outcome of compiling one file
type checkResult struct {
	path    string
	source  string
	externs []string
	env     *cbot.Environment
	cerr    *cbot.CBotError
	err     error
}

// checkFile compiles path in an environment of its own
func checkFile(path, encodingName string) checkResult {
	res := checkResult{path: path}
	source, err := readSource(path, encodingName)
	if err != nil {
		res.err = err
		return res
	}
	res.source = source
	opts := &runOptions{timer: -1}
	res.env = newEnvironment(opts)
	prog := res.env.NewProgram(path)
	res.externs, err = prog.Compile(source, nil)
	if err != nil && !errors.As(err, &res.cerr) {
		res.err = err
	}
	return res
}

func checkCommand(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	encodingName := fs.String("encoding", cliConfig.Encoding, "Source encoding")
	jobs := fs.Int("j", runtime.NumCPU(), "Files compiled in parallel")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		errorPrintf("Error: check needs at least one script\n")
		return 2
	}

	results := make([]checkResult, fs.NArg())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))
	for i, name := range fs.Args() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := findScriptFile(name)
			if path == "" {
				results[i] = checkResult{path: name, err: errors.New("file not found")}
				return nil
			}
			results[i] = checkFile(path, *encodingName)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errorPrintf("Error: %v\n", err)
		return 130
	}

	failed := 0
	for _, res := range results {
		switch {
		case res.err != nil:
			failed++
			errorPrintf("%s: %v\n", res.path, res.err)
		case res.cerr != nil:
			failed++
			res.env.Logger().CompileError(res.cerr, sourceLines(res.source))
		default:
			colorPrintf(getEqualsColor(), "ok ")
			fmt.Printf("%s (extern: %s)\n", res.path, strings.Join(res.externs, ", "))
		}
		if res.env != nil {
			res.env.Free()
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}
