package interfaces

import "context"

// ReasoningModel synthesizes free text from a prompt. The core treats it
// as a pure function and never hands it raw user file content without
// explicit consent.
type ReasoningModel interface {
	Reason(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a fixed-dimension vector. Implementations used
// by the indexing path must compute entirely locally: no network I/O.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed output dimensionality
	Dimension() int
}

// VisionModel extracts a textual description from an image. Callers must
// hold user consent before passing image bytes to a remote implementation.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, image []byte) (string, error)
}
