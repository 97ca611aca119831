package scrape

import "strings"

// ExtractDocText flattens a rich-text document tree (as found in Luma's
// description_mirror) into plain text. Leaf "text" nodes contribute their
// text, "hard_break" nodes become newlines, and any node's "content" array is
// walked recursively. Nil input yields "".
func ExtractDocText(node any) string {
	var b strings.Builder
	walkDocNode(node, &b)
	return b.String()
}

func walkDocNode(node any, b *strings.Builder) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}

	switch m["type"] {
	case "text":
		if s, ok := m["text"].(string); ok {
			b.WriteString(s)
		}
	case "hard_break":
		b.WriteString("\n")
	}

	if children, ok := m["content"].([]any); ok {
		for _, child := range children {
			walkDocNode(child, b)
		}
	}
}
