package health

import "context"

// VectorDBPinger checks vector database availability.
type VectorDBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogPinger checks movie catalog availability.
type CatalogPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
