package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/vietlawhub/legal-gateway/internal/config"
	"github.com/vietlawhub/legal-gateway/internal/core/domain"
	"github.com/vietlawhub/legal-gateway/internal/core/ports"
	"github.com/vietlawhub/legal-gateway/internal/core/usecase"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/chunking"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/extractor/document"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/llm/ollama"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/queue/nats"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/repository/postgres"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/resilience"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/storage/localfs"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/vector/weaviate"
	"github.com/vietlawhub/legal-gateway/internal/infrastructure/workerpool"
	"github.com/vietlawhub/legal-gateway/internal/observability/metrics"
)

// App wires the ports explicitly at startup; nothing downstream reaches for
// ambient globals.
type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	ChatUC    ports.ChatService
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            time.Duration(cfg.OllamaTimeoutSecs) * time.Second,
		GenerateRPS:        cfg.OllamaGenerateRPS,
		ResilienceExecutor: executor,
	})
	ollamaClient.StartReadinessProbe(ctx, time.Duration(cfg.OllamaProbeSecs)*time.Second)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := weaviate.New(cfg.WeaviateURL, cfg.WeaviateClass)
	chunker := chunking.NewLegalSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := document.NewExtractor(storage)

	pool := workerpool.New(cfg.PortWorkers)

	serverMetrics := metrics.NewHTTPServerMetrics(service)

	coordinator := usecase.NewRetrievalCoordinator(embedder, vectorDB, pool)
	grader := usecase.NewRelevanceGrader(generator, domain.GradeVerdict(cfg.GradeErrorAssumesRelevant))
	chatUC := usecase.NewChatUseCase(coordinator, grader, generator, serverMetrics.ChatObserver(service))

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, chunker, embedder, vectorDB)

	return &App{
		Config:  cfg,
		Metrics: serverMetrics,

		Queue:     queue,
		Repo:      repo,
		ChatUC:    chatUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			pool.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
