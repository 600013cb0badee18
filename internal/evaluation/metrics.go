package evaluation

// Retrieval metrics over a golden-query run. "Relevant" is the golden
// query's expected product ids; "retrieved" is what the index returned,
// in rank order.

// RecallAtK computes the fraction of expected products found in the
// top-K retrieved results. Returns 0.0 when nothing is expected.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 {
		return 0.0
	}

	relevantSet := toSet(relevant)

	found := 0
	for _, id := range topK(retrieved, k) {
		if _, ok := relevantSet[id]; ok {
			found++
		}
	}

	return float64(found) / float64(len(relevant))
}

// MRRAtK computes the reciprocal rank of the first expected product in
// the top-K retrieved results. Returns 0.0 when none appears.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 || len(retrieved) == 0 {
		return 0.0
	}

	relevantSet := toSet(relevant)

	for i, id := range topK(retrieved, k) {
		if _, ok := relevantSet[id]; ok {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func topK(retrieved []string, k int) []string {
	if k < len(retrieved) {
		return retrieved[:k]
	}
	return retrieved
}
