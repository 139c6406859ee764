// Package markdown renders block trees to markdown and strips markup
// from markdown text.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Node is a renderable block with ordered children.
type Node struct {
	Type     string
	Text     string
	Props    map[string]any
	Children []*Node
}

// Render converts an ordered list of root nodes into a markdown document.
// Nested children of list items are indented; all other children are
// emitted as top-level lines.
func Render(roots []*Node) string {
	var b strings.Builder
	counters := listCounter{}
	for _, n := range roots {
		renderNode(&b, n, 0, counters)
	}
	return strings.TrimRight(b.String(), "\n")
}

// listCounter tracks numbered-list ordinals per nesting level
type listCounter map[int]int

func renderNode(b *strings.Builder, n *Node, depth int, counters listCounter) {
	if counters == nil {
		counters = listCounter{}
	}

	indent := strings.Repeat("  ", depth)
	line := ""

	switch n.Type {
	case "heading1":
		line = "# " + n.Text
	case "heading2":
		line = "## " + n.Text
	case "heading3":
		line = "### " + n.Text
	case "bulleted_list":
		line = indent + "- " + n.Text
	case "numbered_list":
		counters[depth]++
		line = fmt.Sprintf("%s%d. %s", indent, counters[depth], n.Text)
	case "todo":
		box := "[ ]"
		if checked, ok := n.Props["checked"].(bool); ok && checked {
			box = "[x]"
		}
		line = indent + "- " + box + " " + n.Text
	case "quote":
		line = "> " + n.Text
	case "code":
		lang, _ := n.Props["language"].(string)
		line = "```" + lang + "\n" + n.Text + "\n```"
	case "divider":
		line = "---"
	default:
		// paragraph and unknown types render as plain text
		line = indent + n.Text
	}

	b.WriteString(line)
	b.WriteString("\n")
	if n.Type != "numbered_list" {
		delete(counters, depth)
	}

	childDepth := depth
	switch n.Type {
	case "bulleted_list", "numbered_list", "todo":
		childDepth = depth + 1
	}

	childCounters := listCounter{}
	for _, child := range n.Children {
		renderNode(b, child, childDepth, childCounters)
	}
}

var (
	codeFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n?|```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	quoteRe      = regexp.MustCompile(`(?m)^\s*>\s?`)
	listRe       = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+(?:\[[ xX]\]\s*)?`)
	dividerRe    = regexp.MustCompile(`(?m)^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	emphasisRe   = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)(\S(?:.*?\S)?)(\*{1,3}|_{1,3}|~~)`)
)

// Strip removes markdown markup, leaving only the human-readable text.
// Used to decide whether a document has any meaningful content.
func Strip(text string) string {
	s := text
	s = dividerRe.ReplaceAllString(s, "")
	s = codeFenceRe.ReplaceAllString(s, "")
	s = imageRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = quoteRe.ReplaceAllString(s, "")
	s = listRe.ReplaceAllString(s, "")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = emphasisRe.ReplaceAllString(s, "$2")
	return strings.TrimSpace(s)
}

// IsEmpty reports whether the markdown strips down to no text at all.
func IsEmpty(text string) bool {
	return Strip(text) == ""
}
