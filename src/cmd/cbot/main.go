package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"
)

var version = "dev" // set via -ldflags at build time

// ANSI color codes for terminal output
const (
	colorYellow      = "\x1b[93m" // Bright yellow foreground
	colorDarkBrown   = "\x1b[33m" // Dark yellow/brown for light backgrounds
	colorBrightGreen = "\x1b[92m" // Bright green for dark backgrounds
	colorDarkGreen   = "\x1b[32m" // Dark green for light backgrounds
	colorReset       = "\x1b[0m"  // Reset to default
)

// Loaded in main, read by the subcommands
var cliConfig = defaultCLIConfig()

// getEqualsColor returns the color for the "=" prefix in result display
func getEqualsColor() string {
	switch cliConfig.TermBackground {
	case "light":
		return colorDarkGreen
	default: // "auto" defaults to dark
		return colorBrightGreen
	}
}

// getNoticeColor returns the color for status lines such as "suspended"
func getNoticeColor() string {
	switch cliConfig.TermBackground {
	case "light":
		return colorDarkBrown
	default:
		return colorYellow
	}
}

// supportsColor checks if f is a terminal that supports color output
func supportsColor(f *os.File) bool {
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	// Respect NO_COLOR environment variable (https://no-color.org/)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// errorPrintf prints an error message to stderr, using color if supported
func errorPrintf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if supportsColor(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s%s%s", getNoticeColor(), message, colorReset)
	} else {
		fmt.Fprint(os.Stderr, message)
	}
}

// colorPrintf prints to stdout wrapping the message in color when stdout is
// a terminal
func colorPrintf(color, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if supportsColor(os.Stdout) {
		fmt.Printf("%s%s%s", color, message, colorReset)
	} else {
		fmt.Print(message)
	}
}

func main() {
	cliConfig = loadCLIConfig(getConfigFilePath())

	// Interrupts cancel the context; a running script is then saved (when
	// asked to) before exiting
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flag.Usage = showUsage
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("cbot %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		showUsage()
		os.Exit(2)
	}

	var code int
	switch args[0] {
	case "run":
		code = runCommand(ctx, args[1:])
	case "resume":
		code = resumeCommand(ctx, args[1:])
	case "check":
		code = checkCommand(ctx, args[1:])
	case "watch":
		code = watchCommand(ctx, args[1:])
	case "inspect":
		code = inspectCommand(args[1:])
	case "help":
		showUsage()
	default:
		// A bare script name runs it
		code = runCommand(ctx, args)
	}
	os.Exit(code)
}

func showUsage() {
	usage := `Usage: cbot [command] [options] <script>

Commands:
  run [options] <script>         Compile and run a script (default command)
  resume [options] <state.bin>   Continue a run saved with -save
  check <script>...              Compile scripts and report errors
  watch [options] <script>       Recompile and rerun a script when it changes
  inspect <state.bin>            Print a saved state as YAML
  help                           Show this help

Run options:
  -entry <name>      Extern function to start (default: main, else the first)
  -timer <n>         Instructions per tick (0 executes one step per tick)
  -ticks <n>         Stop after n ticks, leaving the routine suspended
  -save <file>       Write the state of a suspended routine to file
  -encoding <name>   Source encoding: utf-8, latin1, windows-1252, utf-16le, utf-16be
  -debug, -d         Enable debug output
  -cat <list>        Comma separated log categories shown with -debug

Configuration is read from ~/.cbot/cbot-cli.toml, created on first run.

Examples:
  cbot hello.txt
  cbot run -timer 0 -ticks 10 -save state.bin loop.txt
  cbot resume state.bin
  cbot inspect state.bin
`
	fmt.Fprint(os.Stderr, usage)
}

// findScriptFile returns filename if it exists, else filename with a .txt
// extension, else ""
func findScriptFile(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}
	if filepath.Ext(filename) == "" {
		withExt := filename + ".txt"
		if _, err := os.Stat(withExt); err == nil {
			return withExt
		}
	}
	return ""
}

// sourceLines splits source into lines for error context
func sourceLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}
