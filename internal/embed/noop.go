package embed

import "context"

// NoopEmbedder is the always-unavailable embedder. Installs that disable
// embedding entirely run with it; recall then resolves by keyword only.
type NoopEmbedder struct{}

// NewNoopEmbedder returns the no-op embedder.
func NewNoopEmbedder() *NoopEmbedder { return &NoopEmbedder{} }

// Embed returns no vector and no error; absence signals unavailability.
func (e *NoopEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

// EmbedBatch returns a nil vector per input text.
func (e *NoopEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

// Dimensions returns the store's default dimension so a store opened against
// a noop embedder still has a stable schema.
func (e *NoopEmbedder) Dimensions() int { return DefaultDimensions }

// ModelName identifies the backend.
func (e *NoopEmbedder) ModelName() string { return "noop" }

// Available is always false.
func (e *NoopEmbedder) Available(_ context.Context) bool { return false }

// Close is a no-op.
func (e *NoopEmbedder) Close() error { return nil }
