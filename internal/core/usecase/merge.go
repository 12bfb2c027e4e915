package usecase

import "github.com/vietlawhub/legal-gateway/internal/core/domain"

// documentKey is the dedup fingerprint for merged retrieval results.
// Known limitation: two distinct passages with the same title and equal
// content length collapse to one.
type documentKey struct {
	title      string
	contentLen int
}

type documentMerge struct {
	seen map[documentKey]struct{}
	out  []domain.RetrievedDocument
}

func newDocumentMerge() *documentMerge {
	return &documentMerge{seen: make(map[documentKey]struct{})}
}

// add appends documents in arrival order, keeping the first occurrence of
// each key.
func (m *documentMerge) add(docs []domain.RetrievedDocument) {
	for _, doc := range docs {
		key := documentKey{title: doc.Title, contentLen: len(doc.Content)}
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.out = append(m.out, doc)
	}
}

func (m *documentMerge) documents() []domain.RetrievedDocument {
	return m.out
}
