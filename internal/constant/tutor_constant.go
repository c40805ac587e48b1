package constant

// Question tiers produced by the router.
const (
	TierSimple   = "simple"
	TierComplex  = "complex"
	TierMultiHop = "multi_hop"
)

// Chat roles in the provider-agnostic message format.
const (
	ChatMessageRoleUser   = "user"
	ChatMessageRoleModel  = "assistant"
	ChatMessageRoleSystem = "system"
)

// Knowledge-graph labels and relationship types.
const (
	NodeTypeKnowledge   = "Knowledge"
	NodeTypeStudent     = "Student"
	NodeTypeInteraction = "Interaction"

	RelAsked      = "ASKED"
	RelUsedSource = "USED_SOURCE"

	RelRelatedTo    = "RELATED_TO"
	RelPrerequisite = "PREREQUISITE"
	RelSimilarTo    = "SIMILAR_TO"
)

// Retrieval defaults. These are tunable design constants; the tests pin
// the current values.
const (
	SemanticTopK       = 5
	SemanticThreshold  = 0.7
	GraphSeedCount     = 3
	GraphMaxDepth      = 2
	GraphResultsLimit  = 50
	SecondaryTopK      = 5
	KnowledgeIndexName = "knowledge_vector_index"
)

// Fusion and response bounds.
const (
	MaxContextChunks      = 10
	MaxContextSources     = 10
	MaxGraphContributions = 5
	MaxResponseSources    = 5
	MaxPersistSources     = 3
	HistoryWindow         = 5
)

// Router heuristics.
const (
	ComplexWordThreshold = 15
)

// Confidence formula constants. The additive structure mirrors the scoring
// the product has always used; treat the weights as tunable.
const (
	ConfidenceBase         = 0.5
	ConfidenceAnswerBonus  = 0.2
	ConfidenceLengthBonus  = 0.1
	ConfidenceContextBonus = 0.1
	ConfidenceScoreCap     = 0.2
	ConfidenceSourcesBonus = 0.1
	AnswerMinLength        = 50
	AnswerMaxLength        = 5000
	ContextMinLength       = 100
	MinSourcesForBonus     = 3
)

// TutorSystemPrompt is the fixed persona instruction for answer generation.
const TutorSystemPrompt = `You are an AI tutor helping students learn.
Use the provided context to answer questions accurately and helpfully.
If the context doesn't contain enough information, say so clearly.
Provide clear, educational explanations.`

// GenerationFallbackPrefix prefixes the deterministic answer produced when
// the language model fails. The wording is kept from the original product,
// which served a Thai-speaking audience.
const GenerationFallbackPrefix = "ขออภัย เกิดข้อผิดพลาดในการสร้างคำตอบ: "

// PipelineFallbackPrefix prefixes the degraded response produced when the
// whole pipeline fails outside any stage guard.
const PipelineFallbackPrefix = "ขออภัย เกิดข้อผิดพลาดในการประมวลผล: "
