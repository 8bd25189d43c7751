package lsp

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap/zaptest"

	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
	"github.com/dimc-lang/dimc/internal/tooling"
)

const testURI = protocol.DocumentURI("file:///project/units.dim")

const testSource = `dimension Length
dimension Time
dimension Velocity = Length / Time

@base(Length) @symbol(m) @prefix(kilo)
unit meters

@base(Time) @symbol(s)
unit seconds
`

// testClient is the editor side of an in-memory connection to a server
type testClient struct {
	conn        jsonrpc2.Conn
	diagnostics chan protocol.PublishDiagnosticsParams
	served      chan error
}

func startServer(t *testing.T) *testClient {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	server := NewServer(pipeline.Options{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	c := &testClient{
		conn:        jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide)),
		diagnostics: make(chan protocol.PublishDiagnosticsParams, 16),
		served:      make(chan error, 1),
	}

	go func() { c.served <- server.Serve(ctx, serverSide) }()
	c.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == protocol.MethodTextDocumentPublishDiagnostics {
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err == nil {
				c.diagnostics <- params
			}
		}
		return reply(ctx, nil, nil)
	})

	t.Cleanup(func() {
		cancel()
		c.conn.Close()
		<-c.served
	})
	return c
}

func (c *testClient) call(t *testing.T, method string, params, result interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.conn.Call(ctx, method, params, result); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func (c *testClient) notify(t *testing.T, method string, params interface{}) {
	t.Helper()
	if err := c.conn.Notify(context.Background(), method, params); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func (c *testClient) nextDiagnostics(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case d := <-c.diagnostics:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
		return protocol.PublishDiagnosticsParams{}
	}
}

func (c *testClient) open(t *testing.T, text string) {
	t.Helper()
	c.notify(t, protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "dimc",
			Version:    1,
			Text:       text,
		},
	})
}

func TestServerInitialization(t *testing.T) {
	server := NewServer(pipeline.Options{}, nil)
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.api == nil {
		t.Error("Server API is nil")
	}
	if server.logger == nil {
		t.Error("Server logger is nil")
	}

	caps := server.capabilities
	if caps.CompletionProvider == nil {
		t.Error("CompletionProvider is nil")
	}
	if caps.DefinitionProvider == nil {
		t.Error("DefinitionProvider is nil")
	}
	if caps.HoverProvider != true {
		t.Error("HoverProvider should be true")
	}
	if caps.ReferencesProvider != true {
		t.Error("ReferencesProvider should be true")
	}
	if caps.DocumentSymbolProvider != true {
		t.Error("DocumentSymbolProvider should be true")
	}
	if caps.WorkspaceSymbolProvider != true {
		t.Error("WorkspaceSymbolProvider should be true")
	}
}

func TestInitialize(t *testing.T) {
	c := startServer(t)

	var result protocol.InitializeResult
	c.call(t, protocol.MethodInitialize, &protocol.InitializeParams{RootURI: "file:///project"}, &result)

	if result.ServerInfo == nil || result.ServerInfo.Name != "dimc-lsp" {
		t.Errorf("Unexpected server info %+v", result.ServerInfo)
	}
	if result.Capabilities.HoverProvider != true {
		t.Error("Expected hover support to be advertised")
	}
}

func TestDiagnosticsLifecycle(t *testing.T) {
	c := startServer(t)

	c.open(t, testSource)
	if d := c.nextDiagnostics(t); d.URI != testURI || len(d.Diagnostics) != 0 {
		t.Errorf("Expected empty diagnostics for a valid file, got %+v", d)
	}

	c.notify(t, protocol.MethodTextDocumentDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: testSource + "unit feet = 0.3048 * meterz\n"},
		},
	})
	d := c.nextDiagnostics(t)
	if len(d.Diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %+v", d.Diagnostics)
	}
	got := d.Diagnostics[0]
	if got.Severity != protocol.DiagnosticSeverityError {
		t.Errorf("Expected error severity, got %v", got.Severity)
	}
	if got.Source != "dimc" || !strings.Contains(got.Message, "meterz") {
		t.Errorf("Unexpected diagnostic %+v", got)
	}
	if got.Range.Start.Line != 9 {
		t.Errorf("Expected the diagnostic on line 9, got %d", got.Range.Start.Line)
	}

	c.notify(t, protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	if d := c.nextDiagnostics(t); len(d.Diagnostics) != 0 {
		t.Errorf("Expected close to clear diagnostics, got %+v", d.Diagnostics)
	}
}

func TestHoverAndDefinition(t *testing.T) {
	c := startServer(t)
	c.open(t, testSource)
	c.nextDiagnostics(t)

	position := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     protocol.Position{Line: 2, Character: 23}, // Length in Velocity
	}

	var hover protocol.Hover
	c.call(t, protocol.MethodTextDocumentHover, &protocol.HoverParams{TextDocumentPositionParams: position}, &hover)
	if !strings.Contains(hover.Contents.Value, "dimension Length") {
		t.Errorf("Unexpected hover %q", hover.Contents.Value)
	}

	var location protocol.Location
	c.call(t, protocol.MethodTextDocumentDefinition, &protocol.DefinitionParams{TextDocumentPositionParams: position}, &location)
	if location.URI != testURI || location.Range.Start != (protocol.Position{Line: 0, Character: 10}) {
		t.Errorf("Unexpected definition %+v", location)
	}
}

func TestReferences(t *testing.T) {
	c := startServer(t)
	c.open(t, testSource)
	c.nextDiagnostics(t)

	position := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     protocol.Position{Line: 0, Character: 12},
	}

	var withDecl []protocol.Location
	c.call(t, protocol.MethodTextDocumentReferences, &protocol.ReferenceParams{
		TextDocumentPositionParams: position,
		Context:                    protocol.ReferenceContext{IncludeDeclaration: true},
	}, &withDecl)

	var withoutDecl []protocol.Location
	c.call(t, protocol.MethodTextDocumentReferences, &protocol.ReferenceParams{
		TextDocumentPositionParams: position,
	}, &withoutDecl)

	if len(withDecl) != 3 || len(withoutDecl) != 2 {
		t.Errorf("Expected 3 and 2 locations, got %d and %d", len(withDecl), len(withoutDecl))
	}
}

func TestSymbols(t *testing.T) {
	c := startServer(t)
	c.open(t, testSource)
	c.nextDiagnostics(t)

	var symbols []protocol.DocumentSymbol
	c.call(t, protocol.MethodTextDocumentDocumentSymbol, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}, &symbols)
	if len(symbols) != 5 {
		t.Errorf("Expected 5 declared symbols, got %d", len(symbols))
	}

	var found []protocol.SymbolInformation
	c.call(t, protocol.MethodWorkspaceSymbol, &protocol.WorkspaceSymbolParams{Query: "kilo"}, &found)
	if len(found) != 1 || found[0].Name != "kilometers" || found[0].ContainerName != "meters" {
		t.Errorf("Unexpected workspace symbols %+v", found)
	}
}

func TestCompletion(t *testing.T) {
	c := startServer(t)
	c.open(t, "dimension Length\n@base(Length) @\n")
	c.nextDiagnostics(t)

	var list protocol.CompletionList
	c.call(t, protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 1, Character: 15},
		},
	}, &list)

	labels := make(map[string]protocol.InsertTextFormat)
	for _, item := range list.Items {
		labels[item.Label] = item.InsertTextFormat
	}
	if labels["@prefix"] != protocol.InsertTextFormatSnippet {
		t.Errorf("Expected @prefix as a snippet, got %v", labels)
	}
	if labels["@metric_prefixes"] != protocol.InsertTextFormatPlainText {
		t.Errorf("Expected @metric_prefixes as plain text, got %v", labels)
	}
}

func TestExit(t *testing.T) {
	c := startServer(t)
	c.notify(t, protocol.MethodExit, nil)

	select {
	case <-c.conn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the server to close the connection on exit")
	}
}

func TestConvertSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    tooling.DiagnosticSeverity
		expected protocol.DiagnosticSeverity
	}{
		{"Error severity", tooling.DiagnosticSeverityError, protocol.DiagnosticSeverityError},
		{"Warning severity", tooling.DiagnosticSeverityWarning, protocol.DiagnosticSeverityWarning},
		{"Info severity", tooling.DiagnosticSeverityInfo, protocol.DiagnosticSeverityInformation},
		{"Hint severity", tooling.DiagnosticSeverityHint, protocol.DiagnosticSeverityHint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertSeverity(tt.input)
			if result != tt.expected {
				t.Errorf("convertSeverity(%v): expected %v, got %v", tt.input, tt.expected, result)
			}
		})
	}
}
