package pipeline

import "errors"

var (
	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrTransformerRequired is returned when a transformer is not provided.
	ErrTransformerRequired = errors.New("transformer required")

	// ErrLoaderRequired is returned when a loader is not provided.
	ErrLoaderRequired = errors.New("loader required")

	// ErrCheckpointStoreRequired is returned when a checkpoint store is not provided.
	ErrCheckpointStoreRequired = errors.New("checkpoint store required")

	// ErrUnknownRun indicates a resume was requested for a run id the
	// checkpoint store has no state for.
	ErrUnknownRun = errors.New("unknown run id")
)
