package textsplitter

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", DefaultConfig()); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := Split("   \n\n  ", DefaultConfig()); got != nil {
		t.Fatalf("expected nil for whitespace-only input, got %v", got)
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "A short journal entry."
	got := Split(text, DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(got), got)
	}
	if got[0] != text {
		t.Fatalf("expected %q, got %q", text, got[0])
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 30)
	text := para + "\n\n" + para + "\n\n" + para

	got := Split(text, Config{ChunkSize: 200, ChunkOverlap: 0})
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if len(chunk) > 200 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(chunk))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplit_CoversAllContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(". ")
	}
	text := b.String()

	got := Split(text, Config{ChunkSize: 120, ChunkOverlap: 20})
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}

	// Every sentence start must land in at least one chunk.
	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "Sentence number xxxxxx.") {
		t.Error("content lost during split")
	}
}

func TestSplit_OverlapKeepsChunksWithinBounds(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 30)

	got := Split(text, Config{ChunkSize: 100, ChunkOverlap: 30})
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	// Overlap is best-effort at word boundaries; every chunk must still
	// be non-empty and within the size bound.
	for i, chunk := range got {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if len(chunk) > 100 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(chunk))
		}
	}
}

func TestSplit_LongUnbrokenText(t *testing.T) {
	text := strings.Repeat("a", 2500)

	got := Split(text, Config{ChunkSize: 1000, ChunkOverlap: 0})
	if len(got) < 3 {
		t.Fatalf("expected at least 3 chunks for 2500 unbroken chars, got %d", len(got))
	}
	total := 0
	for _, c := range got {
		total += len(c)
	}
	if total != 2500 {
		t.Fatalf("expected 2500 chars across chunks, got %d", total)
	}
}

func TestSplit_InvalidConfigFallsBackToDefaults(t *testing.T) {
	text := strings.Repeat("word ", 50)

	got := Split(text, Config{ChunkSize: -1, ChunkOverlap: -5})
	if len(got) == 0 {
		t.Fatal("expected chunks with defaulted config")
	}

	// Overlap >= size must not loop forever; a degenerate config still
	// terminates with sane output.
	got = Split(text, Config{ChunkSize: 50, ChunkOverlap: 50})
	if len(got) == 0 {
		t.Fatal("expected chunks with clamped overlap")
	}
}
