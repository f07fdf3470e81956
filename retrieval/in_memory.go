package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/archon/core"
)

// Document is one indexable unit of text with source metadata.
type Document struct {
	Content  string
	Metadata core.ChunkMetadata
	// Folder locates the document in the data namespace; matched against
	// the "folder" filter.
	Folder string
}

// InMemoryIndex is a process-local Retriever ranking documents by lexical
// term overlap. Scores are the fraction of distinct query terms present in
// the document, so they always fall within [0, 1].
//
// Concurrency: protected by RWMutex; safe for concurrent Add and Retrieve.
// Suitable for tests and local development; swap for a vector store for
// production retrieval.
type InMemoryIndex struct {
	mu    sync.RWMutex
	docs  []Document
	ready bool
}

// NewInMemoryIndex constructs an empty index. It reports Ready once the
// first document is added.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Add indexes documents.
func (s *InMemoryIndex) Add(docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	s.ready = len(s.docs) > 0
}

// Ready implements Retriever.
func (s *InMemoryIndex) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Retrieve implements Retriever. Results are sorted by descending score,
// truncated to q.TopK and filtered by q.ScoreThreshold and metadata filters.
func (s *InMemoryIndex) Retrieve(ctx context.Context, query string, q Query) ([]core.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokenize(query)
	results := make([]core.RetrievedChunk, 0, len(s.docs))
	for _, doc := range s.docs {
		if !matchesFilters(doc, q.Filters) {
			continue
		}
		score := overlapScore(terms, doc.Content)
		if score < q.ScoreThreshold {
			continue
		}
		results = append(results, core.RetrievedChunk{
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if q.TopK > 0 && len(results) > q.TopK {
		results = results[:q.TopK]
	}
	return results, nil
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?:;\"'()[]")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// overlapScore is the fraction of distinct query terms contained in content.
func overlapScore(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func matchesFilters(doc Document, filters map[string][]string) bool {
	for field, allowed := range filters {
		if len(allowed) == 0 {
			continue
		}
		var value string
		switch field {
		case "folder":
			value = doc.Folder
		case "document_title":
			value = doc.Metadata.DocumentTitle
		case "content_type":
			value = doc.Metadata.ContentType
		case "section":
			value = doc.Metadata.Section
		default:
			continue
		}
		match := false
		for _, a := range allowed {
			if value == a || (field == "folder" && strings.HasPrefix(value, a)) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}
