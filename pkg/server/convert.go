// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"carvel.dev/cfnls/pkg/completion"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/validation"
	"go.lsp.dev/protocol"
)

func toPosition(lines *filepos.LineIndex, offset int) protocol.Position {
	line, char := lines.LineCol(offset)
	return protocol.Position{Line: uint32(line), Character: uint32(char)}
}

func toRange(lines *filepos.LineIndex, rng filepos.Range) protocol.Range {
	return protocol.Range{Start: toPosition(lines, rng.Start), End: toPosition(lines, rng.End)}
}

func toOffset(lines *filepos.LineIndex, pos protocol.Position) int {
	return lines.Offset(int(pos.Line), int(pos.Character))
}

func toDiagnostics(lines *filepos.LineIndex, diags []validation.Diagnostic) []protocol.Diagnostic {
	// an empty list clears diagnostics on the client
	result := []protocol.Diagnostic{}
	for _, diag := range diags {
		pd := protocol.Diagnostic{
			Range:    toRange(lines, diag.Range),
			Severity: protocol.DiagnosticSeverity(diag.Severity),
			Source:   diag.Source,
			Message:  diag.Message,
		}
		if diag.Rule != "" {
			pd.Code = diag.Rule
		}
		result = append(result, pd)
	}
	return result
}

func toCompletionItems(lines *filepos.LineIndex, items []completion.Item) []protocol.CompletionItem {
	result := []protocol.CompletionItem{}
	for _, item := range items {
		ci := protocol.CompletionItem{
			Label:  item.Label,
			Kind:   completionKind(item.Kind),
			Detail: item.Detail,
			TextEdit: &protocol.TextEdit{
				Range:   toRange(lines, item.Replace),
				NewText: item.InsertText,
			},
			InsertTextFormat: protocol.InsertTextFormatPlainText,
		}
		if item.Format == completion.FormatSnippet {
			ci.InsertTextFormat = protocol.InsertTextFormatSnippet
		}
		if item.Documentation != "" {
			ci.Documentation = protocol.MarkupContent{Kind: protocol.Markdown, Value: item.Documentation}
		}
		result = append(result, ci)
	}
	return result
}

func completionKind(kind completion.Kind) protocol.CompletionItemKind {
	switch kind {
	case completion.KindProperty:
		return protocol.CompletionItemKindProperty
	case completion.KindSnippet:
		return protocol.CompletionItemKindSnippet
	default:
		return protocol.CompletionItemKindValue
	}
}
