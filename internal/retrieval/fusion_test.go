package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/graph"
)

func rankedFixture(id graph.ID, vectorScore, graphScore, confidence float64) RankedNode {
	return RankedNode{
		Node:        &graph.Node{ID: id, Meta: graph.Meta{Confidence: confidence}},
		VectorScore: vectorScore,
		GraphScore:  graphScore,
	}
}

func TestFuseScores_WeightedSumOrdersDescending(t *testing.T) {
	a := rankedFixture(graph.NewID(), 0.9, 0.1, 0.5) // 0.7*0.9 + 0.3*0.1 = 0.66
	b := rankedFixture(graph.NewID(), 0.2, 1.0, 0.5) // 0.7*0.2 + 0.3*1.0 = 0.44
	c := rankedFixture(graph.NewID(), 1.0, 1.0, 0.5) // 1.0

	out := fuseScores([]RankedNode{a, b, c}, 0.7, 0.3)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, out[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.66, out[1].FusedScore, 1e-9)
	assert.InDelta(t, 0.44, out[2].FusedScore, 1e-9)
}

func TestFuseScores_TieBreaksOnConfidenceThenID(t *testing.T) {
	idLow := graph.ID{}
	idHigh := graph.ID{}
	idLow[15] = 1
	idHigh[15] = 2

	sameScoreHigherConf := rankedFixture(idHigh, 0.5, 0.5, 0.9)
	sameScoreLowerConf := rankedFixture(idLow, 0.5, 0.5, 0.2)

	out := fuseScores([]RankedNode{sameScoreLowerConf, sameScoreHigherConf}, 0.5, 0.5)
	assert.Equal(t, idHigh, out[0].Node.ID, "higher confidence wins the tie")

	// Equal confidence too: lower id string sorts first.
	tieA := rankedFixture(idLow, 0.5, 0.5, 0.5)
	tieB := rankedFixture(idHigh, 0.5, 0.5, 0.5)
	out = fuseScores([]RankedNode{tieB, tieA}, 0.5, 0.5)
	assert.Equal(t, idLow, out[0].Node.ID)
}

func TestFuseScores_PureGraphWeights(t *testing.T) {
	strong := rankedFixture(graph.NewID(), 0.0, 0.8, 0.5)
	weak := rankedFixture(graph.NewID(), 1.0, 0.1, 0.5)

	out := fuseScores([]RankedNode{weak, strong}, 0, 1)
	assert.Equal(t, strong.Node.ID, out[0].Node.ID)
	assert.InDelta(t, 0.8, out[0].FusedScore, 1e-9)
}
