package domain

import "context"

// Embedder is the shared feature extraction contract between layers.
// Implementations must return an explicit error on failure; an empty
// vector is never used to signal one.
type Embedder interface {
	Embed(ctx context.Context, input string) (EmbeddingResult, error)
	// Dimensions is the output size the extractor currently produces.
	// Vectors stored under an older vocabulary may differ; the
	// consistency auditor uses this value to find them.
	Dimensions() int
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    FeatureVector
	PromptTokens int
	TotalTokens  int
}
