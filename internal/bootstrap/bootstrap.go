// Package bootstrap wires configuration, infrastructure and usecases into
// a running application graph shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ivmelnik/groundfetch/internal/config"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
	"github.com/ivmelnik/groundfetch/internal/core/usecase"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/chunking"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/extractor"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/extractor/pdftext"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/extractor/plaintext"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/extractor/xlsx"
	chromemstore "github.com/ivmelnik/groundfetch/internal/infrastructure/index/chromem"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/index/lexical"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/index/semantic"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/llm/ollama"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/queue/nats"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/repository/postgres"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/resilience"
	"github.com/ivmelnik/groundfetch/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	RebuildUC ports.IndexRebuilder
	QA        ports.QuestionAnswerer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
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

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel,
		ollama.WithExecutor(executor))
	embedder := ollama.NewEmbedder(ollamaClient)
	oracle := ollama.NewOracle(ollamaClient)

	var semanticStore ports.ChunkStore
	switch cfg.VectorBackend {
	case "chromem":
		store, err := chromemstore.NewPersistentStore(cfg.ChromemPath, cfg.ChromemCompress, embedder)
		if err != nil {
			return nil, fmt.Errorf("init chromem store: %w", err)
		}
		semanticStore = store
	default:
		semanticStore = semantic.NewStore(embedder)
	}
	lexicalStore := lexical.NewStore()

	dispatcher := extractor.NewDispatcher(plaintext.NewExtractor(storage))
	dispatcher.Register(pdftext.NewExtractor(storage), "pdf")
	dispatcher.Register(xlsx.NewExtractor(storage), "xlsx", "xlsm")

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, dispatcher, chunker)
	rebuildUC := usecase.NewRebuildIndexUseCase(repo, semanticStore, lexicalStore)

	pipelineCfg := pipelineConfigFrom(cfg)
	pipeline := usecase.NewQAPipeline(&pipelineCfg, semanticStore, lexicalStore, oracle)
	var qa ports.QuestionAnswerer = pipeline
	if pipelineCfg.EnableSelfCheck {
		qa = usecase.NewSelfCheckAnswerer(pipeline, pipelineCfg.MaxRetryIterations)
	}

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		RebuildUC: rebuildUC,
		QA:        qa,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func pipelineConfigFrom(cfg config.Config) usecase.PipelineConfig {
	out := usecase.DefaultPipelineConfig()
	if cfg.QATopK > 0 {
		out.TopK = cfg.QATopK
	}
	if cfg.QAHybridAlpha > 0 && cfg.QAHybridAlpha <= 1 {
		out.Alpha = cfg.QAHybridAlpha
	}
	if cfg.QAPoolMultiplier > 0 {
		out.PoolMultiplier = cfg.QAPoolMultiplier
	}
	if cfg.QAFusionRRFK > 0 {
		out.RRFK = cfg.QAFusionRRFK
	}
	out.EnableRerank = cfg.QAUseRerank
	out.EnableQueryExpansion = cfg.QAUseExpansion
	if cfg.QAExpansionCount > 0 {
		out.QueryExpansionN = cfg.QAExpansionCount
	}
	out.EnableSelfCheck = cfg.QAMaxSelfCheck > 0
	if cfg.QAMaxSelfCheck > 0 {
		out.MaxRetryIterations = cfg.QAMaxSelfCheck
	}
	if cfg.QAContextChars > 0 {
		out.AnswerContextChars = cfg.QAContextChars
	}
	if cfg.QAExploreChars > 0 {
		out.ExploreContextChars = cfg.QAExploreChars
	}
	if cfg.QAExplorePoolCap > 0 {
		out.ExplorePoolCap = cfg.QAExplorePoolCap
	}
	return out
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// QueueTimeout converts the configured queue timeout to a duration.
func (a *App) QueueTimeout() time.Duration {
	return time.Duration(a.Config.APIQueueTimeoutSeconds) * time.Second
}
