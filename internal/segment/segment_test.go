package segment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ambiware-labs/voxweld/internal/config"
)

var testProfile = config.BackendProfile{MaxWords: 10, MaxChars: 120, CrossfadeMS: 30}

func TestSplitShortTextPassesThrough(t *testing.T) {
	text := "Hello there. How are you?"
	chunks := Split(text, testProfile)
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Fatalf("expected text unchanged, got %q", chunks[0].Text)
	}
}

func TestSplitEmptyText(t *testing.T) {
	if chunks := Split("", testProfile); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitWhitespaceOnly(t *testing.T) {
	chunks := Split("   \n ", testProfile)
	if len(chunks) != 1 || chunks[0].Text != "   \n " {
		t.Fatalf("expected whitespace passed through, got %+v", chunks)
	}
}

func TestSplitRespectsLimits(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "Sentence number %d has exactly seven words. ", i)
	}
	chunks := Split(sb.String(), testProfile)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if WordCount(c.Text) > testProfile.MaxWords {
			t.Fatalf("chunk %d has %d words: %q", c.Index, WordCount(c.Text), c.Text)
		}
		if len(c.Text) > testProfile.MaxChars {
			t.Fatalf("chunk %d has %d chars", c.Index, len(c.Text))
		}
	}
}

func TestSplitPreservesWordSequence(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "Alpha beta gamma delta number %d! ", i)
	}
	original := strings.Fields(sb.String())

	var joined []string
	for _, c := range Split(sb.String(), testProfile) {
		joined = append(joined, strings.Fields(c.Text)...)
	}
	if len(joined) != len(original) {
		t.Fatalf("expected %d words, got %d", len(original), len(joined))
	}
	for i := range original {
		if joined[i] != original[i] {
			t.Fatalf("word %d: want %q, got %q", i, original[i], joined[i])
		}
	}
}

func TestSplitIndicesAscend(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("One two three four five six. ")
	}
	for i, c := range Split(sb.String(), testProfile) {
		if c.Index != i {
			t.Fatalf("chunk %d carries index %d", i, c.Index)
		}
	}
}

func TestSplitForcesOversizedSentence(t *testing.T) {
	// One sentence of 35 words with no internal boundary.
	words := make([]string, 35)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	text := strings.Join(words, " ") + ". And a short tail."
	chunks := Split(text, testProfile)

	if len(chunks) < 4 {
		t.Fatalf("expected forced split plus tail, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if WordCount(c.Text) > testProfile.MaxWords {
			t.Fatalf("forced chunk %d exceeds word limit: %q", c.Index, c.Text)
		}
	}
	// The forced runs cover all 35 words in order.
	var got []string
	for _, c := range chunks[:4] {
		got = append(got, strings.Fields(c.Text)...)
	}
	if got[0] != "word0." && got[0] != "word0" {
		t.Fatalf("unexpected first word %q", got[0])
	}
}

func TestSplitScenarioSixChunks(t *testing.T) {
	// 1200 words in ten-word sentences against the kokoro profile
	// packs into exactly six 200-word chunks.
	profile := config.BackendProfile{MaxWords: 200, MaxChars: 1200, CrossfadeMS: 30}
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		sb.WriteString("one two three four five six seven eight nine ten. ")
	}
	chunks := Split(sb.String(), profile)
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if got := WordCount(c.Text); got != 200 {
			t.Fatalf("chunk %d has %d words", c.Index, got)
		}
	}
}
