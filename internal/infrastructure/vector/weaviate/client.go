package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// Client stores and searches statute chunks in a Weaviate class using
// server-side hybrid (lexical + vector) scoring.
type Client struct {
	baseURL    string
	class      string
	httpClient *http.Client

	ensureMu      sync.Mutex
	ensuredSchema bool
}

func New(baseURL, class string) *Client {
	if class == "" {
		class = "LegalDocument"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		class:      class,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.LegalChunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureSchema(ctx); err != nil {
		return err
	}

	type object struct {
		Class      string         `json:"class"`
		Properties map[string]any `json:"properties"`
		Vector     []float32      `json:"vector"`
	}

	objects := make([]object, 0, len(chunks))
	for i, chunk := range chunks {
		objects = append(objects, object{
			Class: c.class,
			Properties: map[string]any{
				"text":     chunk.Text,
				"source":   doc.Filename,
				"article":  chunk.Article,
				"chapter":  chunk.Chapter,
				"chunk_id": i,
			},
			Vector: vectors[i],
		})
	}

	body, err := json.Marshal(map[string]any{"objects": objects})
	if err != nil {
		return fmt.Errorf("marshal batch body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/batch/objects", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("batch", resp)
	}
	return nil
}

// Search runs a hybrid query. An empty vector means the embedding path
// produced no evidence; the result is empty without touching the store.
func (c *Client) Search(ctx context.Context, searchReq domain.SearchRequest) ([]domain.RetrievedDocument, error) {
	if len(searchReq.Vector) == 0 {
		return nil, nil
	}
	limit := searchReq.Limit
	if limit <= 0 {
		limit = 8
	}

	query, err := buildHybridQuery(c.class, searchReq, limit)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weaviate search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Data   map[string]map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(searchResp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", searchResp.Errors[0].Message)
	}

	raw, ok := searchResp.Data["Get"][c.class]
	if !ok {
		return nil, nil
	}

	var hits []struct {
		Text       string `json:"text"`
		Source     string `json:"source"`
		Article    string `json:"article"`
		Chapter    string `json:"chapter"`
		Additional struct {
			Score json.RawMessage `json:"score"`
		} `json:"_additional"`
	}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	out := make([]domain.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		title := hit.Source
		if title == "" {
			title = "Tài liệu pháp luật"
		}
		out = append(out, domain.RetrievedDocument{
			Title:   title,
			Content: fmt.Sprintf("Chương: %s\nĐiều: %s\nNội dung: %s", hit.Chapter, hit.Article, hit.Text),
			Score:   parseScore(hit.Additional.Score),
		})
	}
	return out, nil
}

func buildHybridQuery(class string, searchReq domain.SearchRequest, limit int) (string, error) {
	queryText, err := json.Marshal(searchReq.QueryText)
	if err != nil {
		return "", fmt.Errorf("marshal query text: %w", err)
	}
	vector, err := json.Marshal(searchReq.Vector)
	if err != nil {
		return "", fmt.Errorf("marshal query vector: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "{ Get { %s(limit: %d", class, limit)
	fmt.Fprintf(&b,
		`, hybrid: {query: %s, vector: %s, alpha: %.2f, properties: ["text", "source", "article^3", "chapter"]}`,
		queryText, vector, searchReq.Alpha,
	)
	if searchReq.Article != "" {
		article, err := json.Marshal(searchReq.Article)
		if err != nil {
			return "", fmt.Errorf("marshal article filter: %w", err)
		}
		fmt.Fprintf(&b, `, where: {path: ["article"], operator: Equal, valueString: %s}`, article)
	}
	b.WriteString(") { text source article chapter _additional { score } } } }")
	return b.String(), nil
}

// parseScore tolerates both string and number encodings of _additional.score.
func parseScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if parsed, err := strconv.ParseFloat(asString, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func (c *Client) ensureSchema(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensuredSchema {
		return nil
	}

	exists, err := c.classExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		c.ensuredSchema = true
		return nil
	}

	schema := map[string]any{
		"class":      c.class,
		"vectorizer": "none",
		"properties": []map[string]any{
			{"name": "text", "dataType": []string{"text"}},
			{"name": "source", "dataType": []string{"text"}},
			{"name": "article", "dataType": []string{"text"}},
			{"name": "chapter", "dataType": []string{"text"}},
			{"name": "chunk_id", "dataType": []string{"int"}},
		},
	}
	body, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/schema", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create schema request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate schema request: %w", err)
	}
	defer resp.Body.Close()

	// 422 means the class already exists (created concurrently).
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnprocessableEntity {
		return statusError("schema", resp)
	}
	c.ensuredSchema = true
	return nil
}

func (c *Client) classExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/schema/"+c.class, nil)
	if err != nil {
		return false, fmt.Errorf("create schema check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("weaviate schema check request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, statusError("schema check", resp)
	}
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("weaviate %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("weaviate %s status: %s", operation, resp.Status)
}
