package usecase

import (
	"context"
	"log/slog"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
	"github.com/vietlawhub/legal-gateway/internal/core/ports"
)

// ChatObserver receives orchestration events for metrics. Implementations
// must be cheap and non-blocking.
type ChatObserver interface {
	SearchMode(mode domain.SearchMode)
	GraderVerdict(round int, relevant bool)
	Escalated()
	Outcome(outcome string)
}

// Outcome labels reported to the observer.
const (
	OutcomeAnswered  = "answered"
	OutcomeExhausted = "exhausted"
	OutcomeWarmingUp = "warming_up"
)

// ChatUseCase drives the corrective retrieval ladder: route, retrieve in
// parallel, grade, escalate once through hypothetical-document retrieval,
// then synthesize. Port faults degrade to fixed responses; the error return
// is reserved for context cancellation.
type ChatUseCase struct {
	coordinator *RetrievalCoordinator
	grader      *RelevanceGrader
	generator   ports.Generator
	observer    ChatObserver
}

func NewChatUseCase(
	coordinator *RetrievalCoordinator,
	grader *RelevanceGrader,
	generator ports.Generator,
	observer ChatObserver,
) *ChatUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ChatUseCase{
		coordinator: coordinator,
		grader:      grader,
		generator:   generator,
		observer:    observer,
	}
}

func (uc *ChatUseCase) Answer(ctx context.Context, query string) (*domain.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !uc.generator.Ready() {
		slog.Info("chat_generator_warming_up")
		uc.observer.Outcome(OutcomeWarmingUp)
		return &domain.ChatResponse{Answer: msgWarmingUp, Sources: []string{}}, nil
	}

	article, targeted := DetectArticleReference(query)
	mode := domain.SearchSemantic
	if targeted {
		mode = domain.SearchStrict
		slog.Info("chat_targeted_query", "article", article)
	}
	uc.observer.SearchMode(mode)

	docs := uc.coordinator.Retrieve(ctx, query, article)
	verdict := uc.grader.Grade(ctx, query, docs)
	uc.observer.GraderVerdict(1, bool(verdict))

	if verdict == domain.NotRelevant {
		slog.Info("chat_escalating_hyde", "initial_docs", len(docs))
		uc.observer.Escalated()

		docs = uc.escalate(ctx, query)
		verdict = uc.grader.Grade(ctx, query, docs)
		uc.observer.GraderVerdict(2, bool(verdict))

		if verdict == domain.NotRelevant {
			uc.observer.Outcome(OutcomeExhausted)
			return &domain.ChatResponse{Answer: msgNoInformation, Sources: []string{}}, nil
		}
	}

	uc.observer.Outcome(OutcomeAnswered)
	return uc.synthesize(ctx, query, docs), nil
}

// escalate runs hypothetical-document retrieval: generate a short passage
// that plausibly contains the answer, then search with its embedding. A
// failed generation contributes zero documents.
func (uc *ChatUseCase) escalate(ctx context.Context, query string) []domain.RetrievedDocument {
	hydeDoc, err := uc.generator.Generate(ctx, hydeSystemPrompt, buildHydePrompt(query))
	if err != nil {
		slog.Warn("hyde_generation_failed", "error", err)
		return nil
	}
	if hydeDoc == "" {
		return nil
	}
	return uc.coordinator.RetrieveHypothetical(ctx, hydeDoc)
}

// synthesize builds the final answer from the accepted document set. The
// empty-set check stays even though grading normally filters that case out.
func (uc *ChatUseCase) synthesize(ctx context.Context, query string, docs []domain.RetrievedDocument) *domain.ChatResponse {
	if len(docs) == 0 {
		return &domain.ChatResponse{Answer: msgNoInformation, Sources: []string{}}
	}

	sources := distinctTitles(docs)
	answer, err := uc.generator.Generate(ctx, answerSystemPrompt, buildAnswerPrompt(query, docs))
	if err != nil {
		slog.Error("answer_generation_failed", "error", err)
		return &domain.ChatResponse{Answer: msgGenerationErr, Sources: sources}
	}

	return &domain.ChatResponse{Answer: answer, Sources: sources}
}

func distinctTitles(docs []domain.RetrievedDocument) []string {
	seen := make(map[string]struct{}, len(docs))
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.Title]; dup {
			continue
		}
		seen[doc.Title] = struct{}{}
		out = append(out, doc.Title)
	}
	return out
}

type noopObserver struct{}

func (noopObserver) SearchMode(domain.SearchMode) {}
func (noopObserver) GraderVerdict(int, bool) {}
func (noopObserver) Escalated() {}
func (noopObserver) Outcome(string) {}
