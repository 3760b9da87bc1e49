package retrieval

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/synton-db/syntondb/internal/graph"
)

// Format selects one of the five textual renderings spec §4.5.4 offers
// over a ranked node list.
type Format string

const (
	FormatFlat       Format = "flat"
	FormatStructured Format = "structured"
	FormatMarkdown   Format = "markdown"
	FormatJSON       Format = "json"
	FormatCompact    Format = "compact"
)

// SummaryLevel picks which hierarchical tier (spec §4.6's Document/
// Paragraph/Sentence chunk levels) a node's text is drawn from, within a
// token budget.
type SummaryLevel string

const (
	LevelDocument  SummaryLevel = "document"
	LevelParagraph SummaryLevel = "paragraph"
	LevelSentence  SummaryLevel = "sentence"
)

// Compression selects a content-reduction strategy applied before
// formatting (spec §4.5.4).
type Compression string

const (
	CompressNone          Compression = "none"
	CompressDeduplicate   Compression = "deduplicate"
	CompressKeySentences  Compression = "key_sentences"
	CompressClusterSumm   Compression = "cluster_summary"
	CompressTopOnly       Compression = "top_only"
)

// SynthesisOptions controls Synthesize's pure transform of a ranked list
// into one rendered string (spec §4.5.4: "These transforms are pure
// functions of the ranked list — they do not re-query storage").
type SynthesisOptions struct {
	Format      Format
	Level       SummaryLevel // zero value means "use each node's own content unchanged"
	Compression Compression
	// TokenBudget approximates tokens as whitespace-delimited words, the
	// cheapest budget signal available without an Embedder/tokenizer
	// dependency (spec §4.6's "hierarchical summary selection... picks
	// one level per node based on a token budget").
	TokenBudget int
}

// DefaultSynthesisOptions returns Flat/None with no budget cap.
func DefaultSynthesisOptions() SynthesisOptions {
	return SynthesisOptions{Format: FormatFlat, Compression: CompressNone}
}

// Synthesize renders ranked into one context string per opts. It never
// touches storage: every input it needs is already on RankedNode/Node.
func Synthesize(ranked []RankedNode, opts SynthesisOptions) (string, error) {
	compressed := compress(ranked, opts.Compression)
	bodies := make([]string, len(compressed))
	for i, r := range compressed {
		bodies[i] = selectLevel(r.Node, opts.Level, opts.TokenBudget)
	}

	switch opts.Format {
	case FormatStructured:
		return renderStructured(compressed, bodies), nil
	case FormatMarkdown:
		return renderMarkdown(compressed, bodies), nil
	case FormatJSON:
		return renderJSON(compressed, bodies)
	case FormatCompact:
		return renderCompact(compressed, bodies), nil
	case FormatFlat, "":
		return renderFlat(bodies), nil
	default:
		return "", fmt.Errorf("synthesis: unknown format %q", opts.Format)
	}
}

// selectLevel truncates a node's content to approximately TokenBudget
// words, preferring a sentence-level excerpt (first sentence) when Level
// asks for Sentence and the content is long; Document/Paragraph return
// the content as-is modulo the budget. HierarchicalChunker already split
// the text into the requested tier at ingest time, so this is a display-
// time truncation, not a re-chunk.
func selectLevel(n *graph.Node, level SummaryLevel, tokenBudget int) string {
	text := n.Content
	if level == LevelSentence {
		if idx := strings.IndexAny(text, ".!?"); idx >= 0 && idx+1 < len(text) {
			text = text[:idx+1]
		}
	}
	if tokenBudget <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= tokenBudget {
		return text
	}
	return strings.Join(words[:tokenBudget], " ") + " ..."
}

// compress applies one reduction strategy over ranked, before rendering.
func compress(ranked []RankedNode, strategy Compression) []RankedNode {
	switch strategy {
	case CompressDeduplicate:
		return deduplicateByContent(ranked)
	case CompressKeySentences:
		return keySentences(ranked)
	case CompressClusterSumm:
		return clusterSummary(ranked)
	case CompressTopOnly:
		if len(ranked) > 1 {
			return ranked[:1]
		}
		return ranked
	default:
		return ranked
	}
}

// deduplicateByContent drops nodes whose normalized content was already
// seen, keeping the first (highest-ranked) occurrence.
func deduplicateByContent(ranked []RankedNode) []RankedNode {
	seen := make(map[string]bool, len(ranked))
	out := make([]RankedNode, 0, len(ranked))
	for _, r := range ranked {
		key := strings.ToLower(strings.TrimSpace(r.Node.Content))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

var sentenceSplit = regexp.MustCompile(`(?s)[^.!?]+[.!?]`)

// keySentences replaces each node's content with its single highest-
// signal sentence: the longest sentence, as a cheap proxy for
// information density without a scoring model.
func keySentences(ranked []RankedNode) []RankedNode {
	out := make([]RankedNode, len(ranked))
	for i, r := range ranked {
		sentences := sentenceSplit.FindAllString(r.Node.Content, -1)
		best := r.Node.Content
		if len(sentences) > 0 {
			best = sentences[0]
			for _, s := range sentences {
				if len(s) > len(best) {
					best = s
				}
			}
		}
		clone := r
		node := *r.Node
		node.Content = strings.TrimSpace(best)
		clone.Node = &node
		out[i] = clone
	}
	return out
}

// clusterSummary groups nodes sharing a NodeType "cluster" and replaces
// each cluster with a single synthetic summary node, a coarse stand-in
// for an embedding-clustering pass (no clustering library is in the
// dependency set — see DESIGN.md).
func clusterSummary(ranked []RankedNode) []RankedNode {
	clusters := make(map[graph.NodeType][]RankedNode)
	var order []graph.NodeType
	for _, r := range ranked {
		t := r.Node.NodeType
		if _, ok := clusters[t]; !ok {
			order = append(order, t)
		}
		clusters[t] = append(clusters[t], r)
	}
	out := make([]RankedNode, 0, len(order))
	for _, t := range order {
		group := clusters[t]
		var b strings.Builder
		for i, r := range group {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(r.Node.Content)
		}
		summaryNode := *group[0].Node
		summaryNode.Content = b.String()
		rep := group[0]
		rep.Node = &summaryNode
		out = append(out, rep)
	}
	return out
}

func renderFlat(bodies []string) string {
	return strings.Join(bodies, "\n---\n")
}

func renderStructured(ranked []RankedNode, bodies []string) string {
	var b strings.Builder
	for i, r := range ranked {
		fmt.Fprintf(&b, "# %s\n", r.Node.ID.String())
		fmt.Fprintf(&b, "type: %s\n", r.Node.NodeType)
		fmt.Fprintf(&b, "score: %.4f\n", r.FusedScore)
		fmt.Fprintf(&b, "confidence: %.2f\n", r.Node.Meta.Confidence)
		b.WriteString(bodies[i])
		if i < len(ranked)-1 {
			b.WriteString("\n---\n")
		}
	}
	return b.String()
}

func renderMarkdown(ranked []RankedNode, bodies []string) string {
	var b strings.Builder
	for i, r := range ranked {
		fmt.Fprintf(&b, "## %s (%s, score %.3f)\n\n%s\n\n", r.Node.ID.String(), r.Node.NodeType, r.FusedScore, bodies[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCompact(ranked []RankedNode, bodies []string) string {
	lines := make([]string, len(ranked))
	for i, r := range ranked {
		text := bodies[i]
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		lines[i] = fmt.Sprintf("%.3f|%s|%s", r.FusedScore, r.Node.ID.String()[:8], strings.ReplaceAll(text, "\n", " "))
	}
	return strings.Join(lines, "\n")
}

type jsonResult struct {
	ID         string  `json:"id"`
	NodeType   string  `json:"node_type"`
	FusedScore float64 `json:"fused_score"`
	Confidence float64 `json:"confidence"`
	Content    string  `json:"content"`
}

func renderJSON(ranked []RankedNode, bodies []string) (string, error) {
	out := make([]jsonResult, len(ranked))
	for i, r := range ranked {
		out[i] = jsonResult{
			ID:         r.Node.ID.String(),
			NodeType:   string(r.Node.NodeType),
			FusedScore: r.FusedScore,
			Confidence: r.Node.Meta.Confidence,
			Content:    bodies[i],
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
