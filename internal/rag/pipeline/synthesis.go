package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

// Answer is a synthesized response with its citation list. Sources is derived
// from the retrieved chunks, not parsed out of the model's text.
type Answer struct {
	Text    string
	Sources []string
}

// systemPromptTemplate frames the assistant's role, scopes it to the
// retrieved context, and pins the answer-formatting rules the institute asked
// for. The context block is appended at the end.
const systemPromptTemplate = `You are a helpful assistant for the UF Water Institute.
You answer questions about the Water Institute, including faculty members, research areas,
programs, facilities, partnerships, and general information about the institute.

Be concise, friendly, and accurate. Use the provided context to answer questions.
If you don't have enough information to answer a question, politely say so and
suggest contacting the Water Institute directly at 352-392-5893.

STAY ON TOPIC: Only answer questions directly about the Water Institute, its
faculty members and their research, or water-related research at UF. A user
asking about a person by first name, last name, or full name is always a valid
faculty query when the context contains matching profile data.

For any clearly unrelated request (general knowledge, creative writing, math or
coding help, unrelated advice), respond only with:
"I'm designed to help with questions about the UF Water Institute. Feel free to ask
about our faculty, research, programs, or anything else related to the institute!"

STRICT URL POLICY: Never generate, invent, or guess any URL. Only use URLs that
appear word-for-word in the provided context. If no URL is available, do not
include a link.

FLEXIBLE MATCHING: Tolerate minor typos and partial names, recognize reordered
phrases and synonyms, and make the connection when a query is close to
something in the context.

EXPERT RECOMMENDATIONS: When asked for an expert or specialist in an area,
recommend the top 3 most relevant faculty, each as:
1. **Name** - Department. One-sentence summary of relevant expertise.
Include Website and Google Scholar links only when they appear verbatim in the
context, on their own line at the end of the response as:
**Links:** [Website](URL) | [Google Scholar](URL)

Relevant context:
%s`

// SynthesisPipeline assembles the prompt and produces a grounded answer with
// one chat-completion call per request.
type SynthesisPipeline struct {
	llm          interfaces.LLM
	historyLimit int
	log          *logger.Logger
}

// NewSynthesisPipeline creates a new SynthesisPipeline. historyLimit is the
// number of most recent conversation turns kept in the prompt.
func NewSynthesisPipeline(llm interfaces.LLM, historyLimit int, log *logger.Logger) *SynthesisPipeline {
	if historyLimit <= 0 {
		historyLimit = 5
	}
	return &SynthesisPipeline{
		llm:          llm,
		historyLimit: historyLimit,
		log:          log,
	}
}

// Run builds the system prompt from the retrieved chunks, truncates the
// conversation history, and calls the completion provider once. The model's
// response is returned verbatim; Sources is the order-preserving dedup of the
// retrieved display names. Provider failure wraps ErrSynthesisUnavailable.
func (p *SynthesisPipeline) Run(ctx context.Context, query string, retrieved []Retrieved, history []interfaces.Message) (Answer, error) {
	system := fmt.Sprintf(systemPromptTemplate, buildContextBlock(retrieved))

	messages := truncateHistory(history, p.historyLimit)
	messages = append(messages, interfaces.Message{Role: "user", Content: query})

	p.log.Debug(fmt.Sprintf("Synthesizing answer with %d context chunks and %d history turns",
		len(retrieved), len(messages)-1))

	text, err := p.llm.Complete(ctx, system, messages)
	if err != nil {
		p.log.WithError(err).Error("Completion provider failed")
		return Answer{}, fmt.Errorf("%w: %v", ErrSynthesisUnavailable, err)
	}

	return Answer{Text: text, Sources: sourceNames(retrieved)}, nil
}

// buildContextBlock concatenates the retrieved chunks in rank order, each
// attributed to its citation label so the model can name its sources.
func buildContextBlock(retrieved []Retrieved) string {
	if len(retrieved) == 0 {
		return "(no relevant context found)"
	}
	var sb strings.Builder
	for _, r := range retrieved {
		sb.WriteString(fmt.Sprintf("\n\n[%s]\n%s", r.DisplayName, r.Text))
	}
	return sb.String()
}

// truncateHistory keeps the most recent limit turns in their original order,
// dropping any turn with an unknown role. Oldest turns go first.
func truncateHistory(history []interfaces.Message, limit int) []interfaces.Message {
	kept := make([]interfaces.Message, 0, limit)
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

// sourceNames deduplicates display names preserving first-seen order.
func sourceNames(retrieved []Retrieved) []string {
	seen := make(map[string]bool, len(retrieved))
	sources := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		if r.DisplayName == "" || seen[r.DisplayName] {
			continue
		}
		seen[r.DisplayName] = true
		sources = append(sources, r.DisplayName)
	}
	return sources
}
