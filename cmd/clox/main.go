// clox CLI - compiles and runs single expressions
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/color"
	"github.com/sirupsen/logrus"
	"github.com/tliron/commonlog"

	"github.com/chazu/clox/cache"
	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/lox"
	"github.com/chazu/clox/manifest"
	"github.com/chazu/clox/server"
	"github.com/chazu/clox/vm"
)

// Exit codes follow sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitDataErr  = 65
	exitSoftware = 70
	exitIOErr    = 74
)

// chunkExt marks files holding a compiled chunk instead of source.
const chunkExt = ".cloxc"

// options is the merged result of clox.toml and command line flags.
type options struct {
	disassemble bool
	trace       bool
	cache       bool
	cachePath   string
	lspName     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("clox", flag.ContinueOnError)
	fs.SetOutput(stderr)

	expr := fs.String("e", "", "Evaluate an expression")
	disasm := fs.Bool("d", true, "Print the chunk disassembly before running")
	trace := fs.Bool("trace", false, "Trace every instruction (debug log level)")
	useCache := fs.Bool("cache", false, "Use the compiled chunk cache")
	build := fs.String("build", "", "Compile the input to a "+chunkExt+" file instead of running it")
	lspMode := fs.Bool("lsp", false, "Start the language server on stdio")
	verbose := fs.Bool("v", false, "Verbose output")
	noColor := fs.Bool("no-color", false, "Disable colored error output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: clox [options] [file]\n\n")
		fmt.Fprintf(stderr, "Compiles and runs one expression. With no file and no -e, starts a REPL.\n")
		fmt.Fprintf(stderr, "Files ending in %s are run without recompiling.\n\n", chunkExt)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  clox -e '1 + 2 * 3'             # Print listing and 7\n")
		fmt.Fprintf(stderr, "  clox -d=false expr.lox          # Run a file quietly\n")
		fmt.Fprintf(stderr, "  clox -build expr.cloxc expr.lox # Compile to a chunk file\n")
		fmt.Fprintf(stderr, "  clox -lsp                       # Language server\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *noColor {
		color.Disable()
	}

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintln(stderr, color.Red(fmt.Sprintf("Error: %v", err)))
		return exitUsage
	}

	level, _ := m.LogLevel()
	if *verbose {
		level = logrus.DebugLevel
	}
	logger := logrus.StandardLogger()
	logger.SetOutput(stderr)
	logger.SetLevel(level)

	opts := options{
		disassemble: m.Run.Disassemble,
		trace:       m.Run.Trace,
		cache:       m.Cache.Enabled,
		cachePath:   m.CachePath(),
		lspName:     m.LSP.Name,
	}
	// Flags given explicitly override the manifest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d":
			opts.disassemble = *disasm
		case "trace":
			opts.trace = *trace
		case "cache":
			opts.cache = *useCache
		}
	})
	if opts.trace && logger.GetLevel() < logrus.DebugLevel {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *lspMode {
		verbosity := 1
		if *verbose {
			verbosity = 2
		}
		commonlog.Configure(verbosity, nil)
		if err := server.NewLSP(opts.lspName, logger).Run(); err != nil {
			fmt.Fprintln(stderr, color.Red(fmt.Sprintf("LSP error: %v", err)))
			return exitSoftware
		}
		return exitOK
	}

	interpOpts := []lox.Option{
		lox.WithOutput(stdout),
		lox.WithTrace(opts.trace),
		lox.WithLogger(logger),
	}
	if opts.disassemble {
		interpOpts = append(interpOpts, lox.WithDisassembly(stdout))
	} else {
		interpOpts = append(interpOpts, lox.WithDisassembly(nil))
	}
	if opts.cache {
		c, err := cache.Open(opts.cachePath)
		if err != nil {
			logger.WithError(err).Warn("chunk cache unavailable")
		} else {
			defer c.Close()
			interpOpts = append(interpOpts, lox.WithCache(c))
		}
	}

	paths := fs.Args()
	if len(paths) > 1 {
		fs.Usage()
		return exitUsage
	}

	switch {
	case *expr != "":
		if *build != "" {
			return buildChunk(*expr, *build, logger, stderr)
		}
		return report(stderr, runSource(lox.New(interpOpts...), *expr))

	case len(paths) == 1:
		path := paths[0]
		if strings.HasSuffix(path, chunkExt) {
			return report(stderr, runChunkFile(lox.New(interpOpts...), path))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, color.Red(fmt.Sprintf("Error: %v", err)))
			return exitIOErr
		}
		if *build != "" {
			return buildChunk(string(data), *build, logger, stderr)
		}
		return report(stderr, runSource(lox.New(interpOpts...), string(data)))

	default:
		if *build != "" {
			fmt.Fprintln(stderr, color.Red("Error: -build needs a file or -e expression"))
			return exitUsage
		}
		return runREPL(lox.New(interpOpts...), stdout, stderr)
	}
}

func loadManifest() (*manifest.Manifest, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return manifest.Default(), nil
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

func runSource(in *lox.Interpreter, source string) error {
	_, err := in.Run(source)
	return err
}

func runChunkFile(in *lox.Interpreter, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	chunk, err := vm.UnmarshalChunk(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, err = in.RunChunk(chunk)
	return err
}

// buildChunk compiles source and writes the encoded chunk to out.
func buildChunk(source, out string, logger *logrus.Logger, stderr io.Writer) int {
	c := compiler.New(compiler.WithDisassembly(nil), compiler.WithLogger(logger))
	chunk, err := c.Compile(source)
	if err != nil {
		return report(stderr, err)
	}
	data, err := vm.MarshalChunk(chunk)
	if err != nil {
		return report(stderr, err)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report(stderr, err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintln(stderr, color.Red(fmt.Sprintf("Error: %v", err)))
		return exitIOErr
	}
	logger.WithFields(logrus.Fields{"path": out, "instructions": chunk.Len()}).Info("chunk written")
	return exitOK
}

// report prints err and maps it to an exit code.
func report(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, color.Red(err.Error()))
	switch {
	case errors.Is(err, compiler.ErrCompile):
		return exitDataErr
	case errors.As(err, new(*vm.RuntimeError)):
		return exitSoftware
	case errors.Is(err, os.ErrNotExist):
		return exitIOErr
	default:
		return exitSoftware
	}
}
