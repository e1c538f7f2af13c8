package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/color"
	"github.com/peterh/liner"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/lox"
)

const (
	historyFile = ".clox_history"
	promptMain  = "> "
	promptCont  = ". "
)

// runREPL reads one expression per prompt and runs it. An expression that
// ends early, such as "1 +", continues on the next line.
func runREPL(in *lox.Interpreter, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, color.Bold("clox")+" - enter an expression, :help for commands")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeKeywords)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		source, ok := readExpression(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return exitOK
		}

		trimmed := strings.TrimSpace(source)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit" || trimmed == ":q":
			return exitOK
		case trimmed == ":help":
			fmt.Fprintln(stdout, "  :quit   exit the REPL")
			fmt.Fprintln(stdout, "  :help   show this message")
			continue
		case strings.HasPrefix(trimmed, ":"):
			fmt.Fprintln(stdout, "unknown command. Type :help for commands.")
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))
		if _, err := in.Run(source); err != nil {
			fmt.Fprintln(stderr, color.Red(err.Error()))
		}
	}
}

// readExpression reads lines until they form an expression that does not
// end prematurely. The boolean is false at end of input.
func readExpression(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(line) == "" || !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src failed to compile only because input ran
// out.
func incomplete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	_, err := compiler.New(compiler.WithDisassembly(nil)).Compile(src)
	var synErr *compiler.SyntaxError
	if errors.As(err, &synErr) {
		return synErr.Where == "at end"
	}
	var strErr *compiler.UnterminatedStringError
	return errors.As(err, &strErr)
}

func completeKeywords(line string) []string {
	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	var out []string
	for _, kw := range compiler.Keywords() {
		if strings.HasPrefix(kw, prefix) {
			out = append(out, line[:start]+kw)
		}
	}
	return out
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
