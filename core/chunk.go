package core

// ChunkMetadata locates a retrieved chunk within its source document.
type ChunkMetadata struct {
	DocumentTitle string `json:"document_title"`
	Section       string `json:"section,omitempty"`
	SectionTitle  string `json:"section_title,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	PageReference string `json:"page_reference,omitempty"`
}

// RetrievedChunk is a scored unit of context text returned by the retrieval
// collaborator. Retrievers return chunks sorted by non-increasing Score, all
// with Score within [0, 1].
type RetrievedChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}
