package nlp

import (
	"math"
	"sort"
)

// TermScore pairs a term with its tf-idf score.
type TermScore struct {
	Term  string
	Score float64
}

// Document is a single tokenized document scored with tf-idf against
// itself. With a corpus of one document the idf factor is a constant,
// so term ranking reduces to term frequency; the factor is kept in the
// formula so scores line up with a multi-document corpus.
type Document struct {
	terms  []string // discovery order
	counts map[string]int
}

// NewDocument tokenizes text into a scorable document. Tokens are not
// stopword-filtered here; callers that want keywords filter afterwards.
func NewDocument(text string) *Document {
	d := &Document{counts: make(map[string]int)}
	for _, tok := range Tokenize(text) {
		if _, seen := d.counts[tok]; !seen {
			d.terms = append(d.terms, tok)
		}
		d.counts[tok]++
	}
	return d
}

// singleDocIDF is log(N/(1+df))+1 with N=1 and df=1.
var singleDocIDF = 1 + math.Log(0.5)

// Scores returns tf-idf scores for every term in discovery order.
func (d *Document) Scores() []TermScore {
	scores := make([]TermScore, len(d.terms))
	for i, term := range d.terms {
		scores[i] = TermScore{
			Term:  term,
			Score: float64(d.counts[term]) * singleDocIDF,
		}
	}
	return scores
}

// Keywords returns the top max terms by score, excluding stopwords and
// terms of length <= 2. Ties keep discovery order.
func (d *Document) Keywords(max int) []string {
	scores := d.Scores()
	filtered := scores[:0:0]
	for _, ts := range scores {
		if IsStopword(ts.Term) || len(ts.Term) <= 2 {
			continue
		}
		filtered = append(filtered, ts)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	if max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}

	keywords := make([]string, len(filtered))
	for i, ts := range filtered {
		keywords[i] = ts.Term
	}
	return keywords
}

// Embedding returns the raw score vector in term discovery order. This
// is a bag-of-weights placeholder, not a dense semantic embedding;
// substituting a real embedding model changes the vector space entirely.
func (d *Document) Embedding() []float64 {
	scores := d.Scores()
	vec := make([]float64, len(scores))
	for i, ts := range scores {
		vec[i] = ts.Score
	}
	return vec
}
