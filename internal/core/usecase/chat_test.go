package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

type chatPoolFake struct{}

func (chatPoolFake) Submit(_ context.Context, task func()) error {
	task()
	return nil
}

type chatEmbedderFake struct {
	vec []float32
	err error
}

func (f *chatEmbedderFake) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *chatEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vec == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return f.vec, nil
}

type chatVectorStoreFake struct {
	requests []domain.SearchRequest
	search   func(req domain.SearchRequest) ([]domain.RetrievedDocument, error)
}

func (f *chatVectorStoreFake) IndexChunks(context.Context, *domain.Document, []domain.LegalChunk, [][]float32) error {
	return errors.New("not implemented")
}

func (f *chatVectorStoreFake) Search(_ context.Context, req domain.SearchRequest) ([]domain.RetrievedDocument, error) {
	f.requests = append(f.requests, req)
	if f.search == nil {
		return nil, nil
	}
	return f.search(req)
}

// chatGeneratorFake dispatches on the system prompt so one fake serves the
// grader, the hypothetical-document step, and answer synthesis.
type chatGeneratorFake struct {
	ready bool

	graderVerdicts []string
	hydeText       string
	hydeErr        error
	answerText     string
	answerErr      error

	graderCalls int
	hydeCalls   int
	answerCalls int
}

func (f *chatGeneratorFake) Ready() bool { return f.ready }

func (f *chatGeneratorFake) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	switch systemPrompt {
	case graderSystemPrompt:
		f.graderCalls++
		if len(f.graderVerdicts) == 0 {
			return "NO", nil
		}
		verdict := f.graderVerdicts[0]
		f.graderVerdicts = f.graderVerdicts[1:]
		return verdict, nil
	case hydeSystemPrompt:
		f.hydeCalls++
		return f.hydeText, f.hydeErr
	case answerSystemPrompt:
		f.answerCalls++
		return f.answerText, f.answerErr
	default:
		return "", fmt.Errorf("unexpected system prompt %q", systemPrompt)
	}
}

type chatObserverRecorder struct {
	modes     []domain.SearchMode
	verdicts  []string
	escalated int
	outcomes  []string
}

func (r *chatObserverRecorder) SearchMode(mode domain.SearchMode) {
	r.modes = append(r.modes, mode)
}

func (r *chatObserverRecorder) GraderVerdict(round int, relevant bool) {
	r.verdicts = append(r.verdicts, fmt.Sprintf("%d:%v", round, relevant))
}

func (r *chatObserverRecorder) Escalated() { r.escalated++ }

func (r *chatObserverRecorder) Outcome(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newChatFixture(gen *chatGeneratorFake, store *chatVectorStoreFake, obs ChatObserver) *ChatUseCase {
	coordinator := NewRetrievalCoordinator(&chatEmbedderFake{}, store, chatPoolFake{})
	grader := NewRelevanceGrader(gen, domain.Relevant)
	return NewChatUseCase(coordinator, grader, gen, obs)
}

func TestAnswerTargetedQuery(t *testing.T) {
	store := &chatVectorStoreFake{
		search: func(req domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			if req.Article != "" {
				return []domain.RetrievedDocument{
					{Title: "Luật Doanh nghiệp", Content: "Điều 34. Tài sản góp vốn...", Score: 0.9},
				}, nil
			}
			return []domain.RetrievedDocument{
				{Title: "Luật Doanh nghiệp", Content: "Điều 34. Tài sản góp vốn...", Score: 0.7},
				{Title: "Luật Đầu tư", Content: "Quy định liên quan đến góp vốn...", Score: 0.5},
			}, nil
		},
	}
	gen := &chatGeneratorFake{
		ready:          true,
		graderVerdicts: []string{"YES"},
		answerText:     "Điều 34 quy định về tài sản góp vốn.",
	}
	obs := &chatObserverRecorder{}
	uc := newChatFixture(gen, store, obs)

	resp, err := uc.Answer(context.Background(), "Điều 34 quy định gì?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != gen.answerText {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 distinct sources, got %v", resp.Sources)
	}

	if len(store.requests) != 2 {
		t.Fatalf("expected semantic + strict searches, got %d", len(store.requests))
	}
	var sawStrict bool
	for _, req := range store.requests {
		if req.Article == "Điều 34" {
			sawStrict = true
			if req.QueryText != "Điều 34" {
				t.Fatalf("strict search must query the identifier, got %q", req.QueryText)
			}
		}
	}
	if !sawStrict {
		t.Fatalf("missing article-filtered search in %+v", store.requests)
	}

	if gen.hydeCalls != 0 {
		t.Fatalf("relevant first round must not escalate")
	}
	if len(obs.modes) != 1 || obs.modes[0] != domain.SearchStrict {
		t.Fatalf("expected strict mode observation, got %v", obs.modes)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", obs.outcomes)
	}
}

func TestAnswerExhaustedAfterEscalation(t *testing.T) {
	store := &chatVectorStoreFake{
		search: func(domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			return []domain.RetrievedDocument{
				{Title: "Tài liệu không liên quan", Content: "nội dung khác", Score: 0.1},
			}, nil
		},
	}
	gen := &chatGeneratorFake{
		ready:          true,
		graderVerdicts: []string{"NO", "NO"},
		hydeText:       "Đoạn văn giả định.",
	}
	obs := &chatObserverRecorder{}
	uc := newChatFixture(gen, store, obs)

	resp, err := uc.Answer(context.Background(), "quy định về thuế thu nhập cá nhân")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != msgNoInformation {
		t.Fatalf("expected fixed no-information answer, got %q", resp.Answer)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Fatalf("expected empty non-nil sources, got %#v", resp.Sources)
	}

	if gen.graderCalls != 2 {
		t.Fatalf("expected 2 grading rounds, got %d", gen.graderCalls)
	}
	if gen.hydeCalls != 1 {
		t.Fatalf("expected 1 hypothetical-document generation, got %d", gen.hydeCalls)
	}
	if gen.answerCalls != 0 {
		t.Fatalf("exhausted path must not synthesize an answer")
	}
	if obs.escalated != 1 {
		t.Fatalf("expected 1 escalation observation, got %d", obs.escalated)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeExhausted {
		t.Fatalf("expected exhausted outcome, got %v", obs.outcomes)
	}
}

func TestAnswerGeneratorNotReady(t *testing.T) {
	store := &chatVectorStoreFake{}
	gen := &chatGeneratorFake{ready: false}
	uc := newChatFixture(gen, store, nil)

	resp, err := uc.Answer(context.Background(), "Điều 34 quy định gì?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != msgWarmingUp {
		t.Fatalf("expected warming-up answer, got %q", resp.Answer)
	}
	if len(store.requests) != 0 {
		t.Fatalf("not-ready path must not search, got %d requests", len(store.requests))
	}
	if gen.graderCalls+gen.hydeCalls+gen.answerCalls != 0 {
		t.Fatalf("not-ready path must not call the generator")
	}
}

func TestAnswerEscalationRecovers(t *testing.T) {
	store := &chatVectorStoreFake{
		search: func(req domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			if strings.Contains(req.QueryText, "giả định") {
				return []domain.RetrievedDocument{
					{Title: "Bộ luật Lao động", Content: "Quy định về nghỉ thai sản...", Score: 0.8},
				}, nil
			}
			return []domain.RetrievedDocument{
				{Title: "Luật Đất đai", Content: "nội dung không liên quan", Score: 0.2},
			}, nil
		},
	}
	gen := &chatGeneratorFake{
		ready:          true,
		graderVerdicts: []string{"NO", "YES"},
		hydeText:       "Đoạn giả định về nghỉ thai sản.",
		answerText:     "Lao động nữ được nghỉ thai sản 6 tháng.",
	}
	obs := &chatObserverRecorder{}
	uc := newChatFixture(gen, store, obs)

	resp, err := uc.Answer(context.Background(), "nghỉ thai sản bao lâu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != gen.answerText {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Bộ luật Lao động" {
		t.Fatalf("unexpected sources: %v", resp.Sources)
	}

	last := store.requests[len(store.requests)-1]
	if last.Alpha != hydeAlpha || last.Limit != hydeLimit {
		t.Fatalf("fallback search must use hypothetical-document blend, got %+v", last)
	}
	if want := []string{"1:false", "2:true"}; len(obs.verdicts) != 2 || obs.verdicts[0] != want[0] || obs.verdicts[1] != want[1] {
		t.Fatalf("unexpected verdict observations: %v", obs.verdicts)
	}
}

func TestAnswerHydeGenerationFailureExhausts(t *testing.T) {
	store := &chatVectorStoreFake{
		search: func(domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			return []domain.RetrievedDocument{
				{Title: "Tài liệu", Content: "nội dung", Score: 0.2},
			}, nil
		},
	}
	gen := &chatGeneratorFake{
		ready:          true,
		graderVerdicts: []string{"NO"},
		hydeErr:        errors.New("model overloaded"),
	}
	uc := newChatFixture(gen, store, nil)

	resp, err := uc.Answer(context.Background(), "câu hỏi bất kỳ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != msgNoInformation {
		t.Fatalf("failed escalation must exhaust, got %q", resp.Answer)
	}
	// The second round grades an empty set and must not spend a model call.
	if gen.graderCalls != 1 {
		t.Fatalf("expected 1 grader call, got %d", gen.graderCalls)
	}
}

func TestAnswerSynthesisFailureKeepsSources(t *testing.T) {
	store := &chatVectorStoreFake{
		search: func(domain.SearchRequest) ([]domain.RetrievedDocument, error) {
			return []domain.RetrievedDocument{
				{Title: "Luật Hôn nhân và Gia đình", Content: "Điều 8...", Score: 0.9},
			}, nil
		},
	}
	gen := &chatGeneratorFake{
		ready:          true,
		graderVerdicts: []string{"YES"},
		answerErr:      errors.New("generation failed"),
	}
	uc := newChatFixture(gen, store, nil)

	resp, err := uc.Answer(context.Background(), "điều kiện kết hôn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != msgGenerationErr {
		t.Fatalf("expected fixed generation-error answer, got %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Luật Hôn nhân và Gia đình" {
		t.Fatalf("sources must survive a failed synthesis, got %v", resp.Sources)
	}
}

func TestAnswerCanceledContext(t *testing.T) {
	gen := &chatGeneratorFake{ready: true}
	uc := newChatFixture(gen, &chatVectorStoreFake{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Answer(ctx, "Điều 1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
