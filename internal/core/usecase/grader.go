package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
	"github.com/vietlawhub/legal-gateway/internal/core/ports"
)

// graderSnippetRunes bounds the top-document prefix sent to the model: large
// enough for context, small enough to bound prompt cost.
const graderSnippetRunes = 600

// RelevanceGrader asks the generator a single YES/NO question: does the
// top-ranked document answer the query.
type RelevanceGrader struct {
	generator ports.Generator
	// onError is the verdict assumed when the grading call itself fails.
	onError domain.GradeVerdict
}

func NewRelevanceGrader(generator ports.Generator, onError domain.GradeVerdict) *RelevanceGrader {
	return &RelevanceGrader{
		generator: generator,
		onError:   onError,
	}
}

// Grade judges whether the first document in the list contains enough
// information to answer the query. An empty list is NotRelevant without a
// generation call. Only a case-insensitive "YES" in the model output counts
// as a positive signal; anything else is NotRelevant.
func (g *RelevanceGrader) Grade(ctx context.Context, query string, docs []domain.RetrievedDocument) domain.GradeVerdict {
	if len(docs) == 0 {
		return domain.NotRelevant
	}

	snippet := truncateRunes(docs[0].Content, graderSnippetRunes)
	raw, err := g.generator.Generate(ctx, graderSystemPrompt, buildGraderPrompt(query, snippet))
	if err != nil {
		slog.Warn("grader_call_failed", "assumed_relevant", bool(g.onError), "error", err)
		return g.onError
	}

	verdict := domain.GradeVerdict(strings.Contains(strings.ToUpper(raw), "YES"))
	slog.Info("grader_verdict", "relevant", bool(verdict), "top_title", docs[0].Title)
	return verdict
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
