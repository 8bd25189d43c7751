// Package lsp implements a Language Server Protocol server for unit
// definition files. It provides diagnostics, completion, go-to-definition,
// references, hover information and symbol search.
package lsp

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
	"github.com/dimc-lang/dimc/internal/tooling"
)

// Version is reported to clients in the initialize response
var Version = "dev"

// Server implements the LSP server
type Server struct {
	api    *tooling.API
	conn   jsonrpc2.Conn
	client protocol.Client
	logger *zap.Logger

	workspaceRoot string
	capabilities  protocol.ServerCapabilities

	// cancel is used to signal server shutdown
	cancel context.CancelFunc
}

// NewServer creates a server that compiles documents with opts. A nil
// logger disables logging.
func NewServer(opts pipeline.Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.SkipCodegen = true

	return &Server{
		api:    tooling.NewAPI(opts, logger.Named("tooling")),
		logger: logger,
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: false,
				},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{":", "@", "(", "=", "*", "/"},
				ResolveProvider:   false,
			},
			HoverProvider: true,
			DefinitionProvider: &protocol.DefinitionOptions{
				WorkDoneProgressOptions: protocol.WorkDoneProgressOptions{
					WorkDoneProgress: false,
				},
			},
			ReferencesProvider:      true,
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
		},
	}
}

// Run serves the protocol over stdin and stdout until the client exits or
// ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, stdrwc{})
}

// Serve serves the protocol over rwc
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	s.logger.Info("starting language server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.conn = conn
	s.client = protocol.ClientDispatcher(conn, s.logger.Named("client"))

	conn.Go(ctx, s.handler())

	select {
	case <-ctx.Done():
	case <-conn.Done():
	}

	s.logger.Info("shutting down language server")
	return conn.Close()
}

// handler returns the JSON-RPC handler function
func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("received", zap.String("method", req.Method()))

		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			s.logger.Info("shutdown requested")
			return reply(ctx, nil, nil)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, req)
		case protocol.MethodTextDocumentDidOpen:
			return s.handleTextDocumentDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleTextDocumentDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleTextDocumentDidClose(ctx, reply, req)
		case protocol.MethodTextDocumentDidSave:
			return s.handleTextDocumentDidSave(ctx, reply, req)
		case protocol.MethodTextDocumentCompletion:
			return s.handleTextDocumentCompletion(ctx, reply, req)
		case protocol.MethodTextDocumentHover:
			return s.handleTextDocumentHover(ctx, reply, req)
		case protocol.MethodTextDocumentDefinition:
			return s.handleTextDocumentDefinition(ctx, reply, req)
		case protocol.MethodTextDocumentReferences:
			return s.handleTextDocumentReferences(ctx, reply, req)
		case protocol.MethodTextDocumentDocumentSymbol:
			return s.handleTextDocumentDocumentSymbol(ctx, reply, req)
		case protocol.MethodWorkspaceSymbol:
			return s.handleWorkspaceSymbol(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse initialize params")
	}

	switch {
	case len(params.WorkspaceFolders) > 0:
		s.workspaceRoot = uri.URI(params.WorkspaceFolders[0].URI).Filename()
	case params.RootURI != "":
		s.workspaceRoot = params.RootURI.Filename()
	case params.RootPath != "":
		s.workspaceRoot = params.RootPath
	}
	s.logger.Info("initialize",
		zap.String("workspace", s.workspaceRoot),
		zap.Any("client", params.ClientInfo),
	)

	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    "dimc-lsp",
			Version: Version,
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, _ jsonrpc2.Request) error {
	if err := reply(ctx, nil, nil); err != nil {
		s.logger.Warn("error replying to exit", zap.Error(err))
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) handleTextDocumentDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didOpen params")
	}

	docURI := string(params.TextDocument.URI)
	s.logger.Debug("document opened", zap.String("uri", docURI), zap.Int32("version", params.TextDocument.Version))

	s.api.UpdateDocument(docURI, params.TextDocument.Text, int(params.TextDocument.Version))
	s.publishDiagnostics(ctx, docURI)

	return reply(ctx, nil, nil)
}

func (s *Server) handleTextDocumentDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChange params")
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full document sync: the last change holds the whole text
	docURI := string(params.TextDocument.URI)
	content := params.ContentChanges[len(params.ContentChanges)-1].Text

	s.api.UpdateDocument(docURI, content, int(params.TextDocument.Version))
	s.publishDiagnostics(ctx, docURI)

	return reply(ctx, nil, nil)
}

func (s *Server) handleTextDocumentDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didClose params")
	}

	docURI := string(params.TextDocument.URI)
	s.api.CloseDocument(docURI)

	// Clear diagnostics of the closed document
	if s.client != nil {
		if err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		}); err != nil {
			s.logger.Warn("error clearing diagnostics", zap.Error(err))
		}
	}

	return reply(ctx, nil, nil)
}

func (s *Server) handleTextDocumentDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didSave params")
	}

	s.publishDiagnostics(ctx, string(params.TextDocument.URI))
	return reply(ctx, nil, nil)
}

// publishDiagnostics publishes diagnostics for a document
func (s *Server) publishDiagnostics(ctx context.Context, docURI string) {
	if s.client == nil {
		return
	}

	diagnostics := s.api.GetDiagnostics(docURI)
	lspDiagnostics := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		lspDiagnostics = append(lspDiagnostics, protocol.Diagnostic{
			Range:    convertRange(d.Range),
			Severity: convertSeverity(d.Severity),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
		})
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: lspDiagnostics,
	}
	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.logger.Warn("error publishing diagnostics", zap.String("uri", docURI), zap.Error(err))
	}
}

// replyWithError sends an LSP-compliant error response
func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    code,
		Message: message,
	})
}

// convertSeverity converts tooling diagnostic severity to LSP severity
func convertSeverity(severity tooling.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case tooling.DiagnosticSeverityError:
		return protocol.DiagnosticSeverityError
	case tooling.DiagnosticSeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case tooling.DiagnosticSeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case tooling.DiagnosticSeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
