package search

import "sort"

// rrfInput is one candidate surviving into the fused ranking, carrying its
// 1-based rank in each contributing list (0 meaning absent).
type rrfInput struct {
	id           int64
	lexicalRank  int
	semanticRank int
}

// reciprocalRankFusion implements spec §4.4's RRF formula exactly:
//
//	score(r) = w_t/(k+rank_T(r)) + w_s/(k+rank_S(r))
//
// with 1/(k+rank) defined as 0 when r is absent from that list. Both
// weights zero is rejected by the caller before this runs; here they are
// assumed already normalized so w_t+w_s=1. Ties break by ascending id, then
// by the caller-supplied secondary key (timestamp), via the stable sort the
// caller performs after scoring.
func reciprocalRankFusion(inputs []rrfInput, wt, ws, k float64) map[int64]float64 {
	scores := make(map[int64]float64, len(inputs))
	for _, in := range inputs {
		var score float64
		if in.lexicalRank > 0 {
			score += wt / (k + float64(in.lexicalRank))
		}
		if in.semanticRank > 0 {
			score += ws / (k + float64(in.semanticRank))
		}
		scores[in.id] = score
	}
	return scores
}

// normalizeWeights enforces w_t + w_s = 1, rejecting (0, 0).
func normalizeWeights(wt, ws float64) (float64, float64, error) {
	if wt <= 0 && ws <= 0 {
		return 0, 0, ErrWeightsZero
	}
	sum := wt + ws
	return wt / sum, ws / sum, nil
}

// mergeRanks builds the rrfInput slice from two id-ordered rank lists,
// unioning ids that appear in either.
func mergeRanks(lexicalIDs, semanticIDs []int64) []rrfInput {
	lexRank := make(map[int64]int, len(lexicalIDs))
	for i, id := range lexicalIDs {
		lexRank[id] = i + 1
	}
	semRank := make(map[int64]int, len(semanticIDs))
	for i, id := range semanticIDs {
		semRank[id] = i + 1
	}

	seen := make(map[int64]struct{}, len(lexRank)+len(semRank))
	var ids []int64
	for _, id := range lexicalIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, id := range semanticIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	inputs := make([]rrfInput, len(ids))
	for i, id := range ids {
		inputs[i] = rrfInput{id: id, lexicalRank: lexRank[id], semanticRank: semRank[id]}
	}
	return inputs
}

// orderByScore sorts ids by descending score, breaking ties by ascending
// id then ascending ts, matching spec §4.4 exactly.
func orderByScore(ids []int64, scores map[int64]float64, ts map[int64]int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		if a != b {
			return a < b
		}
		return ts[a] < ts[b]
	})
	return out
}
