package facematch

import (
	"fmt"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// Match is the best person for a query embedding
type Match struct {
	PersonID   string
	PersonName string
	FaceID     string  // exemplar that produced the best similarity
	Confidence float64 // cosine similarity
}

// Matcher finds the best-matching person for an embedding.
// Implementations must return nil when nothing reaches threshold and an error
// wrapping database.ErrConfiguration when embedding lengths disagree.
type Matcher interface {
	Match(query []float32, candidates []database.Person, threshold float64) (*Match, error)
}

// ExactMatcher is the brute-force baseline: every exemplar of every candidate
// is scored, O(persons x exemplars) per query.
type ExactMatcher struct{}

// NewExactMatcher returns the brute-force matcher.
func NewExactMatcher() *ExactMatcher {
	return &ExactMatcher{}
}

// Match scores all exemplars and keeps the single best pair. Ties go to the first
// pair encountered in candidate order.
func (m *ExactMatcher) Match(query []float32, candidates []database.Person, threshold float64) (*Match, error) {
	if len(query) == 0 || isZero(query) {
		return nil, nil
	}

	var best *Match
	for i := range candidates {
		p := &candidates[i]
		for j := range p.Exemplars {
			ex := &p.Exemplars[j]
			if len(ex.Embedding) == 0 {
				continue
			}
			if len(ex.Embedding) != len(query) {
				return nil, dimensionError(len(query), len(ex.Embedding), p.Name)
			}
			sim, ok := CosineSimilarity(query, ex.Embedding)
			if !ok {
				continue
			}
			if best == nil || sim > best.Confidence {
				best = &Match{PersonID: p.ID, PersonName: p.Name, FaceID: ex.FaceID, Confidence: sim}
			}
		}
	}

	if best == nil || best.Confidence < threshold {
		return nil, nil
	}
	return best, nil
}

func dimensionError(query, exemplar int, person string) error {
	return fmt.Errorf("%w: detector produced %d-dim embedding but exemplars of %q have %d dims",
		database.ErrConfiguration, query, person, exemplar)
}
