package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/tooling"
)

// handleTextDocumentHover handles hover requests
func (s *Server) handleTextDocumentHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	docURI := string(params.TextDocument.URI)
	pos := tooling.Position{
		Line:      int(params.Position.Line),
		Character: int(params.Position.Character),
	}

	hover, err := s.api.GetHover(docURI, pos)
	if err != nil {
		s.logger.Warn("hover", zap.String("uri", docURI), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get hover information")
	}

	if hover == nil {
		return reply(ctx, nil, nil)
	}

	r := convertRange(hover.Range)
	result := protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &r,
	}

	return reply(ctx, result, nil)
}

// handleTextDocumentDocumentSymbol lists the top-level expressions
func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	docURI := string(params.TextDocument.URI)

	symbols, err := s.api.GetDocumentSymbols(docURI)
	if err != nil {
		s.logger.Warn("document symbols", zap.String("uri", docURI), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get document symbols")
	}

	lspSymbols := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		r := convertRange(sym.Range)
		lspSymbols = append(lspSymbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           convertSymbolKind(sym.Kind),
			Detail:         sym.Detail,
			Range:          r,
			SelectionRange: r,
		})
	}

	return reply(ctx, lspSymbols, nil)
}

// Helper functions to convert between tooling and LSP types

func convertRange(r tooling.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(r.Start.Line),
			Character: uint32(r.Start.Character),
		},
		End: protocol.Position{
			Line:      uint32(r.End.Line),
			Character: uint32(r.End.Character),
		},
	}
}

func convertSymbolKind(kind tooling.SymbolKind) protocol.SymbolKind {
	switch kind {
	case tooling.SymbolKindBinary, tooling.SymbolKindUnary:
		return protocol.SymbolKindOperator
	case tooling.SymbolKindGrouping:
		return protocol.SymbolKindObject
	case tooling.SymbolKindNumber:
		return protocol.SymbolKindNumber
	case tooling.SymbolKindBoolean:
		return protocol.SymbolKindBoolean
	case tooling.SymbolKindString:
		return protocol.SymbolKindString
	default:
		return protocol.SymbolKindObject
	}
}
