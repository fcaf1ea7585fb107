package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(parts, " ")
}

func TestNew_RejectsBadParameters(t *testing.T) {
	cases := []struct {
		name    string
		window  int
		overlap int
	}{
		{"zero window", 0, 0},
		{"negative window", -1, 0},
		{"negative overlap", 200, -1},
		{"overlap equals window", 200, 200},
		{"overlap exceeds window", 200, 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.window, tc.overlap)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestSplit_OverlappingWindows(t *testing.T) {
	c, err := New(200, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := c.Split(words(250))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first := strings.Fields(chunks[0])
	if len(first) != 200 || first[0] != "w1" || first[199] != "w200" {
		t.Errorf("first chunk should cover words 1-200, got %d words [%s..%s]",
			len(first), first[0], first[len(first)-1])
	}

	second := strings.Fields(chunks[1])
	if len(second) != 100 || second[0] != "w151" || second[99] != "w250" {
		t.Errorf("second chunk should cover words 151-250, got %d words [%s..%s]",
			len(second), second[0], second[len(second)-1])
	}
}

func TestSplit_SingleChunkWhenTextFits(t *testing.T) {
	c, _ := New(200, 50)

	for _, n := range []int{1, 199, 200} {
		chunks := c.Split(words(n))
		if len(chunks) != 1 {
			t.Errorf("%d words: expected 1 chunk, got %d", n, len(chunks))
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c, _ := New(200, 50)

	if got := c.Split(""); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := c.Split("   \n\t  "); got != nil {
		t.Errorf("expected nil for whitespace text, got %v", got)
	}
}

func TestSplit_NoOverlap(t *testing.T) {
	c, _ := New(3, 0)

	chunks := c.Split("a b c d e f g")
	want := []string{"a b c", "d e f", "g"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplitPage_AttributesSourceAndPage(t *testing.T) {
	c, _ := New(2, 1)

	chunks := c.SplitPage(domain.Page{Number: 7, Text: "one two three"}, "report.pdf")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.Source != "report.pdf" {
			t.Errorf("chunk %d: expected source report.pdf, got %q", i, ch.Source)
		}
		if ch.Page != 7 {
			t.Errorf("chunk %d: expected page 7, got %d", i, ch.Page)
		}
	}
}
