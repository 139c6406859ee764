// Package textsplitter chunks rendered document text for embedding,
// preferring paragraph and sentence boundaries over hard cuts.
package textsplitter

import (
	"strings"
	"unicode"
)

// Config controls chunk sizing. Sizes are in characters.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultConfig returns the sizing used when no config is supplied.
func DefaultConfig() Config {
	return Config{ChunkSize: 1000, ChunkOverlap: 200}
}

// Boundary preference, coarsest first. A chunk is cut at the first
// separator level that produces pieces small enough.
var separators = []string{"\n\n", "\n", ". ", " "}

// Split chunks text into pieces of at most cfg.ChunkSize characters,
// carrying cfg.ChunkOverlap characters of trailing context into the next
// chunk. Blank pieces are dropped; nil is returned for empty input.
func Split(text string, cfg Config) []string {
	if len(text) == 0 {
		return nil
	}
	cfg = cfg.sanitized()
	return split(text, separators, cfg)
}

func (c Config) sanitized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	return c
}

func split(text string, seps []string, cfg Config) []string {
	if len(text) <= cfg.ChunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	if len(seps) == 0 {
		return hardSplit(text, cfg)
	}

	sep, rest := seps[0], seps[1:]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return split(text, rest, cfg)
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if chunk := strings.TrimSpace(cur.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for i, part := range parts {
		piece := part
		if i < len(parts)-1 && sep != " " {
			piece = part + sep
		}

		if cur.Len() > 0 && cur.Len()+len(piece) > cfg.ChunkSize {
			flush()
			carry := tailContext(cur.String(), cfg.ChunkOverlap)
			cur.Reset()
			cur.WriteString(carry)
		}

		cur.WriteString(piece)
		if sep == " " && i < len(parts)-1 {
			cur.WriteString(" ")
		}
	}
	flush()

	// A single oversized piece falls through to the finer separators.
	var out []string
	for _, chunk := range chunks {
		if len(chunk) > cfg.ChunkSize {
			out = append(out, split(chunk, rest, cfg)...)
		} else {
			out = append(out, chunk)
		}
	}
	return out
}

// hardSplit cuts at fixed offsets, backing up to a space when one is in
// reach. Last resort for text with no usable separators.
func hardSplit(text string, cfg Config) []string {
	var chunks []string
	runes := []rune(text)
	start := 0

	for start < len(runes) {
		end := start + cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		for end > start && end < len(runes) && !unicode.IsSpace(runes[end]) {
			end--
		}
		if end == start {
			end = start + cfg.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = end - cfg.ChunkOverlap
		if start < 0 {
			start = 0
		}
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
		if start <= end-cfg.ChunkOverlap {
			start = end
		}
	}
	return chunks
}

// tailContext returns up to size characters from the end of text,
// aligned to a word boundary.
func tailContext(text string, size int) string {
	if size <= 0 || len(text) == 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= size {
		return text
	}

	start := len(runes) - size
	for start < len(runes) && !unicode.IsSpace(runes[start]) {
		start++
	}
	for start < len(runes) && unicode.IsSpace(runes[start]) {
		start++
	}
	if start >= len(runes) {
		return ""
	}
	return string(runes[start:])
}
