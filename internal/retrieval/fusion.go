package retrieval

import "sort"

// fuseScores applies spec §4.5.3 step 4's weighted fusion,
// fused_score(c) = α·vector_score + β·graph_score, and sorts the result
// deterministically: fused score desc, then meta.confidence desc, then
// node id asc (step 5). The sort shape — score first, a secondary
// "quality" tiebreak, then a stable id tiebreak — is adapted from the
// teacher's RRFFusion.compare (internal/search/fusion.go), generalized
// from reciprocal-rank fusion of two ranked lists to the spec's direct
// α/β weighted sum of two already-computed scores.
func fuseScores(candidates []RankedNode, alpha, beta float64) []RankedNode {
	for i := range candidates {
		candidates[i].FusedScore = alpha*candidates[i].VectorScore + beta*candidates[i].GraphScore
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if a.Node.Meta.Confidence != b.Node.Meta.Confidence {
			return a.Node.Meta.Confidence > b.Node.Meta.Confidence
		}
		return a.Node.ID.String() < b.Node.ID.String()
	})
	return candidates
}
