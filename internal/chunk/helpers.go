package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// chunkID derives a stable chunk id by hashing its source document name
// (via metadata["source"], if present) and byte range; the chunk text is
// not part of the hash.
func chunkID(metadata map[string]string, start, end int) string {
	source := metadata["source"]
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", source, start, end)))
	return hex.EncodeToString(h[:])[:16]
}

// sentencePattern splits on sentence-ending punctuation followed by
// whitespace; a simple heuristic, adequate for the semantic/hierarchical
// chunkers' boundary detection (spec §4.6 does not mandate a specific
// sentence segmenter).
var sentencePattern = regexp.MustCompile(`[.!?]+[\s]+`)

// splitSentences segments text into trimmed, non-empty sentences,
// tracking each sentence's byte offset into the original text.
func splitSentences(text string) []Chunk {
	var out []Chunk
	locs := sentencePattern.FindAllStringIndex(text, -1)
	start := 0
	for _, loc := range locs {
		end := loc[1]
		raw := text[start:end]
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			lead := strings.Index(raw, trimmed)
			out = append(out, Chunk{Text: trimmed, ByteStart: start + lead, ByteEnd: start + lead + len(trimmed)})
		}
		start = end
	}
	if start < len(text) {
		raw := text[start:]
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			lead := strings.Index(raw, trimmed)
			out = append(out, Chunk{Text: trimmed, ByteStart: start + lead, ByteEnd: start + lead + len(trimmed)})
		}
	}
	return out
}

// wordSet tokenizes s into a lowercase word set, for Jaccard overlap.
func wordSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f != "" {
			set[f] = true
		}
	}
	return set
}

// jaccard computes the Jaccard similarity between two word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
