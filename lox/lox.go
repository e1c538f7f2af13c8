// Package lox ties the compiler and the VM together: it compiles a source
// expression, prints its disassembly, and executes the resulting chunk.
package lox

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/vm"
)

// ChunkCache stores compiled chunks keyed by their source text.
type ChunkCache interface {
	Get(source string) (*vm.Chunk, bool, error)
	Put(source string, chunk *vm.Chunk) error
}

// Interpreter runs source expressions. Each Run compiles into a fresh chunk
// and executes it on a fresh VM; nothing carries over between runs.
type Interpreter struct {
	out    io.Writer // result output
	disasm io.Writer // disassembly output, nil to disable
	name   string
	trace  bool
	cache  ChunkCache
	logger *logrus.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where results are printed.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithDisassembly sets where chunk listings are written. Nil disables them.
func WithDisassembly(w io.Writer) Option {
	return func(in *Interpreter) { in.disasm = w }
}

// WithName sets the chunk name shown in listings.
func WithName(name string) Option {
	return func(in *Interpreter) { in.name = name }
}

// WithTrace enables VM instruction tracing at debug level.
func WithTrace(trace bool) Option {
	return func(in *Interpreter) { in.trace = trace }
}

// WithCache makes Compile consult c before compiling.
func WithCache(c ChunkCache) Option {
	return func(in *Interpreter) { in.cache = c }
}

// WithLogger sets the logger handed to the compiler and the VM.
func WithLogger(l *logrus.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// New creates an interpreter that prints listings and results to stdout.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		out:    os.Stdout,
		disasm: os.Stdout,
		name:   compiler.DefaultChunkName,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run compiles and executes source with a default interpreter. Compile
// errors are returned before anything is executed.
func Run(source string) error {
	_, err := New().Run(source)
	return err
}

// Run compiles source and executes it, returning the value the chunk
// printed.
func (in *Interpreter) Run(source string) (vm.Value, error) {
	chunk, err := in.Compile(source)
	if err != nil {
		return vm.Nil, err
	}
	return in.RunChunk(chunk)
}

// RunChunk executes an already compiled chunk.
func (in *Interpreter) RunChunk(chunk *vm.Chunk) (vm.Value, error) {
	machine := vm.New(
		vm.WithOutput(in.out),
		vm.WithTrace(in.trace),
		vm.WithLogger(in.logger),
	)
	return machine.Run(chunk)
}

// Compile turns source into a chunk, using the cache when one is set.
// Cache failures are logged and otherwise ignored.
func (in *Interpreter) Compile(source string) (*vm.Chunk, error) {
	log := in.logger.WithField("component", "lox")

	if in.cache != nil {
		chunk, ok, err := in.cache.Get(source)
		switch {
		case err != nil:
			log.WithError(err).Warn("chunk cache lookup failed")
		case ok:
			log.Debug("chunk cache hit")
			if in.disasm != nil {
				if err := chunk.DisassembleTo(in.disasm, in.name); err != nil {
					return nil, fmt.Errorf("lox: write disassembly: %w", err)
				}
			}
			return chunk, nil
		}
	}

	c := compiler.New(
		compiler.WithDisassembly(in.disasm),
		compiler.WithName(in.name),
		compiler.WithLogger(in.logger),
	)
	chunk, err := c.Compile(source)
	if err != nil {
		return nil, err
	}

	if in.cache != nil {
		if err := in.cache.Put(source, chunk); err != nil {
			log.WithError(err).Warn("chunk cache store failed")
		}
	}
	return chunk, nil
}
