package server

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/vm"
)

var errWorkerStopped = errors.New("worker stopped")

// Engine is the compiler and VM pair owned by a Worker. Neither is safe for
// concurrent use, so only the worker goroutine touches them.
type Engine struct {
	Compiler *compiler.Compiler
	VM       *vm.VM
}

// Evaluate compiles and runs source, discarding printed output.
func (e *Engine) Evaluate(source string) (*vm.Chunk, vm.Value, error) {
	chunk, err := e.Compiler.Compile(source)
	if err != nil {
		return nil, vm.Nil, err
	}
	v, err := e.VM.Run(chunk)
	return chunk, v, err
}

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*Engine) interface{}
	done chan workResult
}

// workResult holds the return value from an Engine operation.
type workResult struct {
	value interface{}
	err   error
}

// Worker serializes all Engine access through a single goroutine. LSP
// handlers run concurrently and must go through the worker.
type Worker struct {
	engine   *Engine
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker with a quiet engine and starts the processing
// goroutine.
func NewWorker(logger *logrus.Logger) *Worker {
	w := &Worker{
		engine: &Engine{
			Compiler: compiler.New(compiler.WithDisassembly(nil), compiler.WithLogger(logger)),
			VM:       vm.New(vm.WithOutput(io.Discard), vm.WithLogger(logger)),
		},
		requests: make(chan workRequest),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the engine, recovering from panics.
func (w *Worker) execute(fn func(*Engine) interface{}) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.engine)
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Panics in fn are returned as errors.
func (w *Worker) Do(fn func(*Engine) interface{}) (interface{}, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case <-w.quit:
		return nil, errWorkerStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errWorkerStopped
	}
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
