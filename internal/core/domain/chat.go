package domain

// SearchMode identifies which retrieval strategy produced a result set.
type SearchMode string

const (
	// SearchStrict filters on an exact article identifier.
	SearchStrict SearchMode = "strict"
	// SearchSemantic is a broad hybrid search over the full query.
	SearchSemantic SearchMode = "semantic"
	// SearchHyDE is a semantic search seeded by a generated hypothetical answer.
	SearchHyDE SearchMode = "hyde"
)

// RetrievedDocument is one evidence passage returned by the vector store.
type RetrievedDocument struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchRequest describes one vector-store query. Alpha blends lexical and
// vector scoring (0 = pure lexical, 1 = pure vector). Article, when set,
// restricts results to chunks whose article field matches exactly.
type SearchRequest struct {
	QueryText string
	Vector    []float32
	Limit     int
	Alpha     float64
	Article   string
}

// GradeVerdict is the grader's binary judgment on a result set.
type GradeVerdict bool

const (
	Relevant    GradeVerdict = true
	NotRelevant GradeVerdict = false
)

// ChatResponse is the final user-facing answer. Sources holds the distinct
// titles of the documents the answer was synthesized from.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
