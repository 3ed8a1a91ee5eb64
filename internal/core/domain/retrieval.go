package domain

// FallbackAnswer is the exact sentence returned when no grounded answer can
// be produced. Callers compare against it verbatim.
const FallbackAnswer = "Not available in documents."

type RetrievalMethod string

const (
	MethodLexical  RetrievalMethod = "lexical"
	MethodSemantic RetrievalMethod = "semantic"
	MethodHybrid   RetrievalMethod = "hybrid"
	MethodFusion   RetrievalMethod = "fusion"
	MethodRerank   RetrievalMethod = "rerank"
)

// ScoredChunk is one retrieved unit of evidence. Score is only comparable
// between chunks carrying the same Method tag.
type ScoredChunk struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Source   string          `json:"source"`
	Position int             `json:"position"`
	Score    float64         `json:"score"`
	Method   RetrievalMethod `json:"method"`
}

// Retag returns a copy carrying a new score and method tag. Retrieval stages
// never mutate a chunk another stage still holds.
func (c ScoredChunk) Retag(score float64, method RetrievalMethod) ScoredChunk {
	out := c
	out.Score = score
	out.Method = method
	return out
}

// CorpusDocument is the unit handed to a chunk store build: one source
// document already split into ordered chunks.
type CorpusDocument struct {
	Source string
	Chunks []string
}

type AnswerResult struct {
	Query     string        `json:"query"`
	Answer    string        `json:"answer"`
	Citations []string      `json:"citations"`
	Evidence  []ScoredChunk `json:"evidence"`

	// Attempts is the number of retrieve+generate passes spent on this
	// answer; 1 unless the self-check loop retried.
	Attempts int `json:"attempts"`
	// RerankUsedFallback reports that the rerank output could not be parsed
	// and the candidate order was kept as-is.
	RerankUsedFallback bool `json:"-"`
}

type ExplorationQuestion struct {
	Question string   `json:"q"`
	Support  []string `json:"support"`
}

type Exploration struct {
	Snapshot  string                `json:"snapshot"`
	Topics    []string              `json:"topics"`
	Questions []ExplorationQuestion `json:"questions"`
}
