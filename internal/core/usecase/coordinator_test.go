package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// asyncPoolFake runs each task on its own goroutine, like the real pool.
type asyncPoolFake struct{ err error }

func (f asyncPoolFake) Submit(_ context.Context, task func()) error {
	if f.err != nil {
		return f.err
	}
	go task()
	return nil
}

type coordEmbedderFake struct {
	mu   sync.Mutex
	errs map[string]error
}

func (f *coordEmbedderFake) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *coordEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[text]; err != nil {
		return nil, err
	}
	return []float32{0.5}, nil
}

type coordStoreFake struct {
	mu      sync.Mutex
	results map[string][]domain.RetrievedDocument
	errs    map[string]error
}

func (f *coordStoreFake) IndexChunks(context.Context, *domain.Document, []domain.LegalChunk, [][]float32) error {
	return errors.New("not implemented")
}

func (f *coordStoreFake) Search(_ context.Context, req domain.SearchRequest) ([]domain.RetrievedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[req.QueryText]; err != nil {
		return nil, err
	}
	return f.results[req.QueryText], nil
}

func TestRetrieveMergesStrictAndSemantic(t *testing.T) {
	shared := domain.RetrievedDocument{Title: "Luật Doanh nghiệp", Content: "Điều 34...", Score: 0.9}
	store := &coordStoreFake{
		results: map[string][]domain.RetrievedDocument{
			"Điều 34 quy định gì?": {
				shared,
				{Title: "Luật Đầu tư", Content: "góp vốn", Score: 0.4},
			},
			"Điều 34": {
				shared,
				{Title: "Nghị định 01/2021", Content: "đăng ký doanh nghiệp", Score: 0.6},
			},
		},
	}
	c := NewRetrievalCoordinator(&coordEmbedderFake{}, store, asyncPoolFake{})

	docs := c.Retrieve(context.Background(), "Điều 34 quy định gì?", "Điều 34")
	if len(docs) != 3 {
		t.Fatalf("expected 3 deduplicated documents, got %d: %+v", len(docs), docs)
	}

	titles := make(map[string]int)
	for _, doc := range docs {
		titles[doc.Title]++
	}
	if titles["Luật Doanh nghiệp"] != 1 {
		t.Fatalf("shared document must appear exactly once, got %d", titles["Luật Doanh nghiệp"])
	}
}

func TestRetrieveWithoutArticleRunsSingleSearch(t *testing.T) {
	store := &coordStoreFake{
		results: map[string][]domain.RetrievedDocument{
			"thủ tục ly hôn": {{Title: "Luật Hôn nhân và Gia đình", Content: "...", Score: 0.7}},
		},
	}
	c := NewRetrievalCoordinator(&coordEmbedderFake{}, store, asyncPoolFake{})

	docs := c.Retrieve(context.Background(), "thủ tục ly hôn", "")
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
}

func TestRetrieveToleratesFailedBranch(t *testing.T) {
	store := &coordStoreFake{
		results: map[string][]domain.RetrievedDocument{
			"Điều 5": {{Title: "Bộ luật Dân sự", Content: "Điều 5...", Score: 0.8}},
		},
		errs: map[string]error{
			"Điều 5 là gì": errors.New("vector store unavailable"),
		},
	}
	c := NewRetrievalCoordinator(&coordEmbedderFake{}, store, asyncPoolFake{})

	docs := c.Retrieve(context.Background(), "Điều 5 là gì", "Điều 5")
	if len(docs) != 1 || docs[0].Title != "Bộ luật Dân sự" {
		t.Fatalf("surviving branch must still contribute, got %+v", docs)
	}
}

func TestRetrieveToleratesEmbedFailure(t *testing.T) {
	embedder := &coordEmbedderFake{errs: map[string]error{
		"câu hỏi": errors.New("embedding backend down"),
	}}
	store := &coordStoreFake{}
	c := NewRetrievalCoordinator(embedder, store, asyncPoolFake{})

	if docs := c.Retrieve(context.Background(), "câu hỏi", ""); len(docs) != 0 {
		t.Fatalf("expected no documents, got %+v", docs)
	}
}

func TestRetrieveToleratesPoolRejection(t *testing.T) {
	c := NewRetrievalCoordinator(&coordEmbedderFake{}, &coordStoreFake{}, asyncPoolFake{err: errors.New("pool closed")})

	if docs := c.Retrieve(context.Background(), "Điều 9?", "Điều 9"); len(docs) != 0 {
		t.Fatalf("rejected submissions must yield an empty result, got %+v", docs)
	}
}

func TestRetrieveHypotheticalUsesFallbackBlend(t *testing.T) {
	var captured domain.SearchRequest
	store := &chatVectorStoreFake{
		search: func(req domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			captured = req
			return []domain.RetrievedDocument{{Title: "Luật Thuế", Content: "...", Score: 0.6}}, nil
		},
	}
	c := NewRetrievalCoordinator(&chatEmbedderFake{}, store, chatPoolFake{})

	docs := c.RetrieveHypothetical(context.Background(), "đoạn văn giả định")
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if captured.Limit != hydeLimit || captured.Alpha != hydeAlpha || captured.Article != "" {
		t.Fatalf("unexpected fallback request: %+v", captured)
	}
}

func TestDocumentMergeKeepsFirstOccurrence(t *testing.T) {
	merge := newDocumentMerge()
	merge.add([]domain.RetrievedDocument{
		{Title: "A", Content: "xx", Score: 0.9},
		{Title: "B", Content: "yyy", Score: 0.5},
	})
	merge.add([]domain.RetrievedDocument{
		{Title: "A", Content: "zz", Score: 0.1}, // same title, same length: duplicate
		{Title: "A", Content: "zzzz", Score: 0.2},
	})

	docs := merge.documents()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d: %+v", len(docs), docs)
	}
	if docs[0].Score != 0.9 {
		t.Fatalf("first occurrence must win, got %+v", docs[0])
	}
}
