package jira

import "strings"

// Atlassian Document Format node types the flattener understands.
// Anything else is treated as an opaque container.
const (
	nodeParagraph = "paragraph"
	nodeText      = "text"
	nodeHardBreak = "hardBreak"
)

// FlattenDocument extracts plain text from an ADF document value as
// decoded by encoding/json. Each top-level block becomes one line; a
// hardBreak splits lines within a block. It returns "" when the value
// carries no content array.
func FlattenDocument(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	content, ok := obj["content"].([]any)
	if !ok {
		return ""
	}
	var blocks []string
	for _, raw := range content {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var b strings.Builder
		flattenInline([]any{node}, &b)
		if b.Len() > 0 {
			blocks = append(blocks, b.String())
		}
	}
	return strings.Join(blocks, "\n")
}

// flattenInline folds nodes depth-first into b. Unknown node types
// still recurse into their children so new ADF node kinds degrade to
// their text content instead of being dropped.
func flattenInline(nodes []any, b *strings.Builder) {
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		switch typ, _ := node["type"].(string); typ {
		case nodeText:
			if text, ok := node["text"].(string); ok {
				b.WriteString(text)
			}
		case nodeHardBreak:
			b.WriteString("\n")
		default:
			if children, ok := node["content"].([]any); ok {
				flattenInline(children, b)
			}
		}
	}
}

// TextDocument builds the minimal ADF payload Jira accepts for comment
// and description bodies: one paragraph of literal text.
func TextDocument(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": nodeParagraph,
				"content": []any{
					map[string]any{"type": nodeText, "text": text},
				},
			},
		},
	}
}
