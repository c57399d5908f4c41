package facematch

import (
	"slices"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
	log "github.com/sirupsen/logrus"
)

// HNSWMatcher answers queries from an HNSW graph over all exemplar embeddings.
// The graph is rebuilt whenever the set of exemplar face IDs in the candidates changes.
// Neighbours returned by the graph are re-scored with exact cosine similarity, so
// the result agrees with ExactMatcher whenever the true best exemplar is among
// the searched neighbours.
type HNSWMatcher struct {
	mu       sync.Mutex
	graph    *hnsw.Graph[string]
	dim      int
	faceIDs  map[string]struct{} // exemplars currently in the graph
	searchK  int
	rebuilds int
}

// NewHNSWMatcher creates an empty matcher; the graph is built on first use.
func NewHNSWMatcher() *HNSWMatcher {
	return &HNSWMatcher{
		faceIDs: make(map[string]struct{}),
		searchK: constants.HNSWSearchK,
	}
}

// Rebuilds returns how many times the graph has been (re)built.
func (m *HNSWMatcher) Rebuilds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuilds
}

// Match searches the graph for the nearest exemplars and returns the best person above threshold.
func (m *HNSWMatcher) Match(query []float32, candidates []database.Person, threshold float64) (*Match, error) {
	if len(query) == 0 || isZero(query) {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked(candidates)
	if m.graph == nil || m.graph.Len() == 0 {
		return nil, nil
	}
	if len(query) != m.dim {
		return nil, dimensionError(len(query), m.dim, "registry")
	}

	// Registry order for tie-breaking: person index, then exemplar index.
	type position struct{ person, exemplar int }
	positions := make(map[string]position, len(m.faceIDs))
	for i := range candidates {
		for j := range candidates[i].Exemplars {
			positions[candidates[i].Exemplars[j].FaceID] = position{i, j}
		}
	}

	neighbors := m.graph.Search(query, m.searchK)

	var best *Match
	var bestPos position
	for _, n := range neighbors {
		pos, ok := positions[n.Key]
		if !ok {
			continue
		}
		sim, ok := CosineSimilarity(query, n.Value)
		if !ok {
			continue
		}
		earlier := pos.person < bestPos.person || (pos.person == bestPos.person && pos.exemplar < bestPos.exemplar)
		if best == nil || sim > best.Confidence || (sim == best.Confidence && earlier) {
			p := &candidates[pos.person]
			best = &Match{PersonID: p.ID, PersonName: p.Name, FaceID: n.Key, Confidence: sim}
			bestPos = pos
		}
	}

	if best == nil || best.Confidence < threshold {
		return nil, nil
	}
	return best, nil
}

// syncLocked rebuilds the graph when the exemplar set differs from the indexed one.
func (m *HNSWMatcher) syncLocked(candidates []database.Person) {
	current := make(map[string]struct{})
	for i := range candidates {
		for j := range candidates[i].Exemplars {
			ex := &candidates[i].Exemplars[j]
			if len(ex.Embedding) == 0 || isZero(ex.Embedding) {
				continue
			}
			current[ex.FaceID] = struct{}{}
		}
	}

	if m.graph != nil && sameKeys(current, m.faceIDs) {
		return
	}

	g := hnsw.NewGraph[string]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.CosineDistance

	dim := 0
	for i := range candidates {
		for j := range candidates[i].Exemplars {
			ex := &candidates[i].Exemplars[j]
			if _, ok := current[ex.FaceID]; !ok {
				continue
			}
			if dim == 0 {
				dim = len(ex.Embedding)
			}
			if len(ex.Embedding) != dim {
				// Mixed dimensions can't share a graph; leave them out and let the
				// dimension check on the query report the problem.
				log.WithField("face_id", ex.FaceID).Warn("skipping exemplar with mismatched embedding length")
				continue
			}
			g.Add(hnsw.MakeNode(ex.FaceID, slices.Clone(ex.Embedding)))
		}
	}

	m.graph = g
	m.dim = dim
	m.faceIDs = current
	m.rebuilds++
	log.WithField("exemplars", len(current)).Debug("rebuilt HNSW face index")
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
