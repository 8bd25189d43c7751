package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/dimc-lang/dimc/internal/tooling"
)

func (s *Server) handleTextDocumentCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	completions, err := s.api.GetCompletions(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Warn("error getting completions", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get completions")
	}

	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		item := protocol.CompletionItem{
			Label:      c.Label,
			Kind:       convertCompletionKind(c.Kind),
			Detail:     c.Detail,
			InsertText: c.InsertText,
		}
		if c.Documentation != "" {
			item.Documentation = protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: c.Documentation,
			}
		}

		if strings.Contains(c.InsertText, "$0") || strings.Contains(c.InsertText, "${") {
			item.InsertTextFormat = protocol.InsertTextFormatSnippet
		} else {
			item.InsertTextFormat = protocol.InsertTextFormatPlainText
		}
		items = append(items, item)
	}

	return reply(ctx, protocol.CompletionList{IsIncomplete: false, Items: items}, nil)
}

func (s *Server) handleTextDocumentHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	hover, err := s.api.GetHover(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Warn("error getting hover", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get hover information")
	}
	if hover == nil {
		return reply(ctx, nil, nil)
	}

	rng := convertRange(hover.Range)
	result := protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &rng,
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleTextDocumentDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse definition params")
	}

	location, err := s.api.GetDefinition(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Warn("error getting definition", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get definition")
	}
	if location == nil {
		return reply(ctx, nil, nil)
	}

	return reply(ctx, convertLocation(*location), nil)
}

func (s *Server) handleTextDocumentReferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.ReferenceParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse references params")
	}

	references, err := s.api.GetReferences(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Warn("error getting references", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get references")
	}

	locations := make([]protocol.Location, 0, len(references))
	for i, ref := range references {
		// The declaration comes first
		if i == 0 && !params.Context.IncludeDeclaration {
			if def, _ := s.api.GetDefinition(string(params.TextDocument.URI), convertPosition(params.Position)); def != nil && def.Range == ref.Range {
				continue
			}
		}
		locations = append(locations, convertLocation(ref))
	}

	return reply(ctx, locations, nil)
}

func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	symbols, err := s.api.GetDocumentSymbols(string(params.TextDocument.URI))
	if err != nil {
		s.logger.Warn("error getting document symbols", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get document symbols")
	}

	lspSymbols := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		// Generated units have no text of their own
		if sym.Template != "" {
			continue
		}
		rng := convertRange(sym.Range)
		lspSymbols = append(lspSymbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           convertSymbolKind(sym.Kind),
			Detail:         sym.Detail,
			Range:          rng,
			SelectionRange: rng,
		})
	}

	return reply(ctx, lspSymbols, nil)
}

func (s *Server) handleWorkspaceSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse workspace symbol params")
	}

	indexed := s.api.SearchSymbols(params.Query)
	symbols := make([]protocol.SymbolInformation, 0, len(indexed))
	for _, sym := range indexed {
		symbols = append(symbols, protocol.SymbolInformation{
			Name:          sym.Name,
			Kind:          convertSymbolKind(sym.Kind),
			Location:      convertLocation(tooling.Location{URI: sym.URI, Range: sym.Range}),
			ContainerName: sym.Template,
		})
	}

	return reply(ctx, symbols, nil)
}

func convertPosition(pos protocol.Position) tooling.Position {
	return tooling.Position{Line: int(pos.Line), Character: int(pos.Character)}
}

func convertRange(r tooling.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},
	}
}

func convertLocation(loc tooling.Location) protocol.Location {
	return protocol.Location{
		URI:   protocol.DocumentURI(loc.URI),
		Range: convertRange(loc.Range),
	}
}

func convertCompletionKind(kind tooling.CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case tooling.CompletionKindKeyword:
		return protocol.CompletionItemKindKeyword
	case tooling.CompletionKindAnnotation:
		return protocol.CompletionItemKindProperty
	case tooling.CompletionKindPrefix:
		return protocol.CompletionItemKindEnumMember
	case tooling.CompletionKindDimension:
		return protocol.CompletionItemKindClass
	case tooling.CompletionKindUnit:
		return protocol.CompletionItemKindUnit
	case tooling.CompletionKindConstant:
		return protocol.CompletionItemKindConstant
	default:
		return protocol.CompletionItemKindText
	}
}

func convertSymbolKind(kind tooling.SymbolKind) protocol.SymbolKind {
	switch kind {
	case tooling.SymbolKindDimension:
		return protocol.SymbolKindClass
	case tooling.SymbolKindUnit:
		return protocol.SymbolKindField
	case tooling.SymbolKindConstant:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindObject
	}
}
