// Package retrieval defines the retrieval collaborator boundary: given a
// query it returns ranked context chunks for prompt assembly. Retrieval is
// always best-effort from the executor's point of view; a failing or
// not-ready retriever degrades a run, it never fails it.
package retrieval

import (
	"context"

	"github.com/hupe1980/archon/core"
)

// Query bounds one retrieval call.
type Query struct {
	// TopK caps the number of returned chunks (within [1, 20]).
	TopK int
	// ScoreThreshold drops chunks scoring below it (within [0, 1]).
	ScoreThreshold float64
	// Filters restricts chunks by metadata field to any of the listed values.
	Filters map[string][]string
	// Strategy is a hint for retrievers that support multiple ranking modes.
	Strategy core.RetrievalStrategy
}

// Retriever is the retrieval collaborator interface.
//
// Contract for Retrieve:
//   - results are sorted by non-increasing score
//   - len(results) <= query.TopK
//   - every result scores >= query.ScoreThreshold
type Retriever interface {
	// Ready reports whether the underlying index can serve queries. An
	// executor skips retrieval entirely while this is false.
	Ready() bool

	Retrieve(ctx context.Context, query string, q Query) ([]core.RetrievedChunk, error)
}
