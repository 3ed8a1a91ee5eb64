package usecase

import (
	"context"
	"fmt"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

// PipelineConfig holds every tunable of the QA pipeline. It is constructed
// once at bootstrap and passed by reference; no component reads ambient
// state.
type PipelineConfig struct {
	TopK           int
	Alpha          float64
	PoolMultiplier int
	RRFK           int

	EnableRerank         bool
	EnableQueryExpansion bool
	QueryExpansionN      int
	EnableSelfCheck      bool
	MaxRetryIterations   int

	AnswerContextChars  int
	ExploreContextChars int
	FallbackEchoMaxLen  int
	RerankPassageChars  int

	ProbeQueries   []string
	ExplorePoolCap int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:                 5,
		Alpha:                defaultAlpha,
		PoolMultiplier:       defaultPoolMultiplier,
		RRFK:                 defaultRRFK,
		EnableRerank:         false,
		EnableQueryExpansion: false,
		QueryExpansionN:      3,
		EnableSelfCheck:      true,
		MaxRetryIterations:   defaultMaxRetryIterations,
		AnswerContextChars:   defaultAnswerContextChars,
		ExploreContextChars:  defaultExploreContextChars,
		FallbackEchoMaxLen:   defaultFallbackEchoMaxLen,
		RerankPassageChars:   defaultRerankPassageChars,
		ProbeQueries: []string{
			"summary key points",
			"risk factors recommendations",
			"pregnancy complications outcomes",
			"screening diagnosis monitoring",
			"treatment guidance management",
		},
		ExplorePoolCap: 18,
	}
}

// QAPipeline composes hybrid retrieval, optional reranking, and grounded
// answer generation into the top-level query operations.
type QAPipeline struct {
	cfg       *PipelineConfig
	retriever *HybridRetriever
	reranker  *Reranker
	generator *AnswerGenerator
	oracle    ports.LanguageOracle
}

func NewQAPipeline(cfg *PipelineConfig, semantic, lexical ports.ChunkStore, oracle ports.LanguageOracle) *QAPipeline {
	return &QAPipeline{
		cfg:       cfg,
		retriever: NewHybridRetriever(semantic, lexical, cfg.Alpha),
		reranker:  NewReranker(oracle, cfg.RerankPassageChars),
		generator: NewAnswerGenerator(oracle, cfg.AnswerContextChars, cfg.FallbackEchoMaxLen),
		oracle:    oracle,
	}
}

// Retrieve runs the retrieval half of the pipeline: optional query
// expansion, hybrid fusion, optional rerank. The bool reports whether rerank
// parsing fell back to the fused order.
func (p *QAPipeline) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, bool, error) {
	docs, err := p.retrieveFused(ctx, query)
	if err != nil {
		return nil, false, err
	}

	if p.cfg.EnableRerank && len(docs) > 0 {
		outcome, err := p.reranker.Rerank(ctx, query, docs, p.cfg.TopK)
		if err != nil {
			return nil, false, err
		}
		return outcome.Chunks, outcome.UsedFallback, nil
	}
	return docs, false, nil
}

func (p *QAPipeline) retrieveFused(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	if !p.cfg.EnableQueryExpansion {
		return p.retriever.Retrieve(ctx, query, p.cfg.TopK, p.cfg.PoolMultiplier)
	}

	queries, err := ExpandQueries(ctx, p.oracle, query, p.cfg.QueryExpansionN)
	if err != nil {
		return nil, err
	}

	lists := make([][]domain.ScoredChunk, 0, len(queries))
	for _, q := range queries {
		docs, err := p.retriever.Retrieve(ctx, q, p.cfg.TopK, p.cfg.PoolMultiplier)
		if err != nil {
			return nil, fmt.Errorf("expanded retrieve %q: %w", q, err)
		}
		lists = append(lists, docs)
	}
	return FuseRRF(lists, p.cfg.TopK, p.cfg.RRFK), nil
}

// Answer executes one retrieve+generate pass. Either a complete result comes
// back or the failure surfaces; no partial AnswerResult is ever returned.
func (p *QAPipeline) Answer(ctx context.Context, query string) (*domain.AnswerResult, error) {
	docs, rerankFellBack, err := p.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	answer, citations, err := p.generator.Generate(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.AnswerResult{
		Query:              query,
		Answer:             answer,
		Citations:          citations,
		Evidence:           docs,
		Attempts:           1,
		RerankUsedFallback: rerankFellBack,
	}, nil
}

// Explore probes the corpus with a fixed battery of queries, deduplicates the
// merged evidence, and asks the oracle for a structured corpus summary.
func (p *QAPipeline) Explore(ctx context.Context) (*domain.Exploration, error) {
	type chunkKey struct {
		source   string
		position int
	}

	var gathered []domain.ScoredChunk
	seen := make(map[chunkKey]struct{})

	for _, probe := range p.cfg.ProbeQueries {
		docs, _, err := p.Retrieve(ctx, probe)
		if err != nil {
			return nil, fmt.Errorf("explore probe %q: %w", probe, err)
		}
		for _, d := range docs {
			key := chunkKey{source: d.Source, position: d.Position}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			gathered = append(gathered, d)
		}
	}

	if len(gathered) > p.cfg.ExplorePoolCap {
		gathered = gathered[:p.cfg.ExplorePoolCap]
	}

	return exploreCorpus(ctx, p.oracle, gathered, p.cfg.ExploreContextChars)
}

// SelfCheckAnswerer wraps a pipeline with the retry controller so callers get
// the CRAG-style loop behind the same inbound contract.
type SelfCheckAnswerer struct {
	pipeline *QAPipeline
	maxIters int
}

func NewSelfCheckAnswerer(pipeline *QAPipeline, maxIters int) *SelfCheckAnswerer {
	if maxIters <= 0 {
		maxIters = defaultMaxRetryIterations
	}
	return &SelfCheckAnswerer{pipeline: pipeline, maxIters: maxIters}
}

func (s *SelfCheckAnswerer) Answer(ctx context.Context, query string) (*domain.AnswerResult, error) {
	return RunWithRetry(ctx, s.pipeline, query, s.maxIters)
}

func (s *SelfCheckAnswerer) Explore(ctx context.Context) (*domain.Exploration, error) {
	return s.pipeline.Explore(ctx)
}
