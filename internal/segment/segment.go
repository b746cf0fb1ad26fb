// Package segment splits input text into chunks that respect a synthesis
// backend's per-request word and character limits, preferring sentence
// boundaries so splice points fall on natural pauses.
package segment

import (
	"regexp"
	"strings"

	"github.com/ambiware-labs/voxweld/internal/config"
)

// Chunk is one backend-sized piece of the input text. Index is the
// emission order, which is also the required rendering and stitching order.
type Chunk struct {
	Index int
	Text  string
}

// sentenceBoundary ends a sentence unit: terminal punctuation followed by
// whitespace. Each unit keeps its punctuation and trailing whitespace so
// joined units reproduce the original text.
var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// WordCount counts whitespace-delimited words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Split partitions text into chunks within the profile's limits.
//
// Text already under both limits passes through as a single chunk. Longer
// text is cut into sentence units which are greedily packed into chunks; a
// unit that alone exceeds a limit is force-split at word boundaries into
// runs of at most MaxWords words. Forced runs are not re-checked against
// MaxChars: a sentence made of enough very long words can still produce an
// oversized chunk, which is accepted rather than splitting inside words.
//
// Empty input yields no chunks; validating that is the caller's concern.
func Split(text string, profile config.BackendProfile) []Chunk {
	if len(text) <= profile.MaxChars && WordCount(text) <= profile.MaxWords {
		if text == "" {
			return nil
		}
		return []Chunk{{Index: 0, Text: text}}
	}

	var chunks []Chunk
	var buffer strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buffer.String()); s != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: s})
		}
		buffer.Reset()
	}

	for _, unit := range sentenceUnits(text) {
		if len(unit) > profile.MaxChars || WordCount(unit) > profile.MaxWords {
			flush()
			for _, run := range forceSplit(unit, profile.MaxWords) {
				chunks = append(chunks, Chunk{Index: len(chunks), Text: run})
			}
			continue
		}

		if buffer.Len()+len(unit) > profile.MaxChars || WordCount(buffer.String()+unit) > profile.MaxWords {
			flush()
		}
		buffer.WriteString(unit)
	}
	flush()

	return chunks
}

// sentenceUnits cuts text after every sentence boundary. The final unit is
// whatever trails the last boundary.
func sentenceUnits(text string) []string {
	var units []string
	prev := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		units = append(units, text[prev:m[1]])
		prev = m[1]
	}
	if prev < len(text) {
		units = append(units, text[prev:])
	}
	return units
}

// forceSplit breaks an oversized sentence at word boundaries into runs of
// at most maxWords words each.
func forceSplit(unit string, maxWords int) []string {
	words := strings.Fields(unit)
	var runs []string
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		runs = append(runs, strings.Join(words[start:end], " "))
	}
	return runs
}
