package retrieval

import (
	"context"
	"sort"

	"github.com/hupe1980/archon/core"
)

// Static is a Retriever backed by a fixed chunk set with pre-assigned
// scores. It applies the ordering, threshold and topK contract of Retrieve
// verbatim, which makes it the reference implementation for tests and
// deterministic demos.
type Static struct {
	Chunks []core.RetrievedChunk
	// Err, when set, is returned by every Retrieve call.
	Err error
	// NotReady forces Ready to report false.
	NotReady bool
}

// Ready implements Retriever.
func (s *Static) Ready() bool { return !s.NotReady }

// Retrieve implements Retriever.
func (s *Static) Retrieve(ctx context.Context, _ string, q Query) ([]core.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	results := make([]core.RetrievedChunk, 0, len(s.Chunks))
	for _, c := range s.Chunks {
		if c.Score >= q.ScoreThreshold {
			results = append(results, c)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if q.TopK > 0 && len(results) > q.TopK {
		results = results[:q.TopK]
	}
	return results, nil
}
