// Package server implements a language server for clox source files.
//
// Documents are compiled on every change and compile errors are published as
// diagnostics. Expressions that compile are also executed, so runtime faults
// such as type mismatches show up as diagnostics too.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/vm"

	_ "github.com/tliron/commonlog/simple"
)

// DefaultName is the server name reported to clients.
const DefaultName = "clox-lsp"

// keywordDocs describes the reserved words. Only true, false and nil are
// valid in expressions; the rest are reserved for statements.
var keywordDocs = map[string]string{
	"true":  "Boolean literal.",
	"false": "Boolean literal.",
	"nil":   "The absence of a value. `!nil` is `true`.",
}

// LspServer bridges LSP editor features to the clox compiler and VM via a
// Worker.
type LspServer struct {
	worker *Worker
	log    commonlog.Logger

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	name    string
	version string
}

// NewLSP creates a new LSP server. An empty name selects DefaultName.
func NewLSP(name string, logger *logrus.Logger) *LspServer {
	if name == "" {
		name = DefaultName
	}
	s := &LspServer{
		worker:  NewWorker(logger),
		log:     commonlog.GetLogger(name),
		docs:    make(map[string]string),
		name:    name,
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, name, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	defer s.worker.Stop()
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("clox LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(text, word)
}

// complete returns the reserved words starting with prefix.
func complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, kw := range compiler.Keywords() {
		if !strings.HasPrefix(kw, prefix) {
			continue
		}
		kind := protocol.CompletionItemKindKeyword
		item := protocol.CompletionItem{
			Label: kw,
			Kind:  &kind,
		}
		if doc, ok := keywordDocs[kw]; ok {
			item.Detail = &doc
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// hover describes keywords and, for any other word, shows what the whole
// document evaluates to along with its chunk listing.
func (s *LspServer) hover(text, word string) (*protocol.Hover, error) {
	var b strings.Builder

	if isKeyword(word) {
		fmt.Fprintf(&b, "**%s** keyword", word)
		if doc, ok := keywordDocs[word]; ok {
			fmt.Fprintf(&b, "\n\n%s", doc)
		} else {
			b.WriteString("\n\nReserved; not valid in an expression.")
		}
		return markdownHover(b.String()), nil
	}

	result, err := s.worker.Do(func(e *Engine) interface{} {
		chunk, v, err := e.Evaluate(text)
		if err != nil {
			return nil
		}
		return fmt.Sprintf("**Result:** `%s`\n\n```\n%s```", v, chunk.Disassemble(compiler.DefaultChunkName))
	})
	if err != nil || result == nil {
		return nil, err
	}

	return markdownHover(result.(string)), nil
}

func markdownHover(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

func isKeyword(word string) bool {
	for _, kw := range compiler.Keywords() {
		if kw == word {
			return true
		}
	}
	return false
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics, err := s.diagnose(text)
	if err != nil {
		s.log.Errorf("diagnosing %s: %v", uri, err)
		return
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose compiles and runs text and converts every failure into a
// diagnostic covering the line it was reported on.
func (s *LspServer) diagnose(text string) ([]protocol.Diagnostic, error) {
	result, err := s.worker.Do(func(e *Engine) interface{} {
		_, _, err := e.Evaluate(text)
		return err
	})
	if err != nil {
		return nil, err
	}

	diagnostics := []protocol.Diagnostic{}
	evalErr, _ := result.(error)
	if evalErr == nil {
		return diagnostics, nil
	}

	var compileErr *compiler.CompileError
	if errors.As(evalErr, &compileErr) {
		for _, e := range compileErr.Errors() {
			diagnostics = append(diagnostics, s.diagnostic(text, compiler.ErrorLine(e), e.Error()))
		}
		return diagnostics, nil
	}

	var runtimeErr *vm.RuntimeError
	if errors.As(evalErr, &runtimeErr) {
		return append(diagnostics, s.diagnostic(text, runtimeErr.Line, runtimeErr.Error())), nil
	}

	return append(diagnostics, s.diagnostic(text, 0, evalErr.Error())), nil
}

// diagnostic builds an error spanning source line line (1-based). Line 0
// means unknown and marks the first line.
func (s *LspServer) diagnostic(text string, line int, message string) protocol.Diagnostic {
	lines := strings.Split(text, "\n")
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(lines) {
		idx = len(lines) - 1
	}

	severity := protocol.DiagnosticSeverityError
	source := s.name
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(idx), Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(idx), Character: protocol.UInteger(len(lines[idx]))},
		},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// --- Text extraction helpers ---

func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full identifier or number under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}

	start := col
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentChar(line[end]) {
		end++
	}
	return line[start:end]
}

// lineAt returns the line under pos and the cursor column clamped to it.
func lineAt(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line, col, true
}

func boolPtr(b bool) *bool {
	return &b
}
