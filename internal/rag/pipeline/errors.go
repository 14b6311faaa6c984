package pipeline

import "errors"

// Query-time failures are request-fatal and must stay distinguishable for the
// caller: a missing index is not the same outcome as a mute model, and
// neither may be passed off as an answer.
var (
	// ErrRetrievalUnavailable means the vector index or the embedding
	// provider could not be reached. Surfaced rather than answering from an
	// empty context, which would be misleading.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrSynthesisUnavailable means the completion provider failed or timed
	// out. The caller receives this instead of a fabricated answer.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
)
