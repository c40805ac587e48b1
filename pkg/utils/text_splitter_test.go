package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("chunks = %v, want the input unchanged", chunks)
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // 500 chars, no whitespace
	chunks := SplitText(text, 120, 20)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}

	// With step = 100, chunk i starts at i*100. Stitching the
	// non-overlapping prefixes back together must reproduce the input.
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if i < len(chunks)-1 {
			rebuilt.WriteString(chunk[:100])
		} else {
			rebuilt.WriteString(chunk)
		}
	}
	if rebuilt.String() != text {
		t.Error("stitched chunks do not reproduce the input")
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("x", 300)
	chunks := SplitText(text, 100, 20)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if !strings.HasPrefix(chunks[i], prev[len(prev)-20:]) {
			t.Errorf("chunk %d does not start with the previous chunk's tail", i)
		}
	}
}

func TestSplitTextPrefersWordBoundary(t *testing.T) {
	// A space sits just inside the soften window near position 100.
	text := strings.Repeat("a", 97) + " " + strings.Repeat("b", 102)
	chunks := SplitText(text, 100, 10)

	if strings.HasSuffix(chunks[0], "b") && strings.Contains(chunks[0], " ") {
		t.Errorf("first chunk cut mid-word: %q", chunks[0])
	}
	if !strings.HasSuffix(chunks[0], " ") {
		t.Errorf("first chunk = %q, want it to end at the word boundary", chunks[0])
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("y", 250)
	chunks := SplitText(text, 100, 100) // degenerate overlap falls back to full steps

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(text) {
		t.Errorf("chunks cover %d chars, want %d", total, len(text))
	}
}
