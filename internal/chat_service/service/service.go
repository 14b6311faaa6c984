package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/pipeline"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

// followUpPhrases are queries that carry no topic of their own. Retrieval for
// them is only meaningful against the topic of the previous user turn.
var followUpPhrases = []string{
	"tell me more",
	"more info",
	"more information",
	"more details",
	"what else",
	"anything else",
	"go on",
	"continue",
	"elaborate",
	"what about them",
	"who else",
}

// Service is the query-path facade: one call runs classification, retrieval
// and synthesis. It owns no state beyond its wired pipelines.
type Service struct {
	retrieval  *pipeline.RetrievalPipeline
	synthesis  *pipeline.SynthesisPipeline
	index      interfaces.VectorStore
	classifier QueryClassifier
	topK       int
	log        *logger.Logger
}

// NewService creates a new Service. classifier may be nil, in which case no
// retrieval filtering is applied.
func NewService(
	retrieval *pipeline.RetrievalPipeline,
	synthesis *pipeline.SynthesisPipeline,
	index interfaces.VectorStore,
	classifier QueryClassifier,
	topK int,
	log *logger.Logger,
) *Service {
	if classifier == nil {
		classifier = NopClassifier{}
	}
	if topK <= 0 {
		topK = 12
	}
	return &Service{
		retrieval:  retrieval,
		synthesis:  synthesis,
		index:      index,
		classifier: classifier,
		topK:       topK,
		log:        log,
	}
}

// Chat answers one user message given the conversation so far. The retrieval
// query may be rewritten from history for follow-up messages; the message sent
// to the model is always the user's original text.
func (s *Service) Chat(ctx context.Context, message string, history []interfaces.Message) (pipeline.Answer, error) {
	searchQuery := expandFollowUp(message, history)
	if searchQuery != message {
		s.log.Debug(fmt.Sprintf("Rewrote follow-up for retrieval: %q", searchQuery))
	}

	filters := s.classifier.Classify(searchQuery)

	retrieved, err := s.retrieval.Run(ctx, searchQuery, s.topK, filters)
	if err != nil {
		return pipeline.Answer{}, err
	}

	return s.synthesis.Run(ctx, message, retrieved, history)
}

// HealthStatus reports service liveness and index population.
type HealthStatus struct {
	Status string `json:"status"`
	Chunks int64  `json:"collection_count"`
}

// Health checks that the vector index is reachable and reports how many
// chunks it holds. An unreachable index degrades rather than errors, so the
// endpoint itself always answers.
func (s *Service) Health(ctx context.Context) HealthStatus {
	count, err := s.index.Count(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Health check could not reach the vector index")
		return HealthStatus{Status: "degraded"}
	}
	return HealthStatus{Status: "healthy", Chunks: count}
}

// expandFollowUp prefixes a topic-less follow-up message with the most recent
// user turn so retrieval has something to match. Messages that carry their
// own topic pass through untouched.
func expandFollowUp(message string, history []interfaces.Message) string {
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(message), ".!?"))
	isFollowUp := false
	for _, phrase := range followUpPhrases {
		if normalized == phrase || strings.HasPrefix(normalized, phrase+" ") {
			isFollowUp = true
			break
		}
	}
	if !isFollowUp {
		return message
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" && strings.TrimSpace(history[i].Content) != "" {
			return history[i].Content + " " + message
		}
	}
	return message
}
