package splitters

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

// TokenSplitter splits text into overlapping chunks measured in tokens,
// preferring paragraph boundaries and falling back to hard token cuts when a
// single paragraph exceeds the chunk size.
//
// Chunks partition the input exactly: every chunk after the first starts with
// the last ChunkOverlap tokens of the previous chunk, and Chunk.Overlap
// records that prefix length in bytes. Stripping the prefixes and
// concatenating the remainders reproduces the input byte for byte.
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	tokenizer    *tiktoken.Tiktoken
}

// NewTokenSplitter creates a TokenSplitter. The overlap is clamped below the
// chunk size. Uses cl100k_base, the tokenizer for the OpenAI embedding models.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*TokenSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}

	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &TokenSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		tokenizer:    tke,
	}, nil
}

// Split splits text into chunks. Empty or whitespace-only input yields zero
// chunks. The result is deterministic for a fixed configuration.
func (s *TokenSplitter) Split(text string) []schema.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// New content per chunk; the remaining ChunkOverlap tokens are reserved
	// for the carried-over prefix.
	budget := s.ChunkSize - s.ChunkOverlap

	// Build non-overlapping cores: paragraphs packed greedily, oversized
	// paragraphs hard-split on token windows. Cores concatenate back to text.
	type core struct {
		text   string
		tokens []int
	}
	var cores []core

	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		t := pending.String()
		cores = append(cores, core{text: t, tokens: s.tokenizer.Encode(t, nil, nil)})
		pending.Reset()
	}

	for _, para := range splitParagraphs(text) {
		paraTokens := s.tokenizer.Encode(para, nil, nil)

		if len(paraTokens) > budget {
			// Hard cut: token windows of the paragraph.
			flush()
			for start := 0; start < len(paraTokens); start += budget {
				end := start + budget
				if end > len(paraTokens) {
					end = len(paraTokens)
				}
				window := paraTokens[start:end]
				cores = append(cores, core{text: s.tokenizer.Decode(window), tokens: window})
			}
			continue
		}

		if pending.Len() > 0 {
			joined := pending.String() + para
			if len(s.tokenizer.Encode(joined, nil, nil)) > budget {
				flush()
			}
		}
		pending.WriteString(para)
	}
	flush()

	chunks := make([]schema.Chunk, 0, len(cores))
	for i, c := range cores {
		if i == 0 {
			chunks = append(chunks, schema.Chunk{Text: c.text})
			continue
		}
		prev := cores[i-1].tokens
		tail := prev
		if len(prev) > s.ChunkOverlap {
			tail = prev[len(prev)-s.ChunkOverlap:]
		}
		prefix := s.tokenizer.Decode(tail)
		chunks = append(chunks, schema.Chunk{
			Text:    prefix + c.text,
			Overlap: len(prefix),
		})
	}

	return chunks
}

// splitParagraphs splits text on blank-line boundaries, keeping the
// separators attached so the pieces concatenate back to the input exactly.
func splitParagraphs(text string) []string {
	var paras []string
	start := 0
	i := 0
	for i < len(text) {
		if text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			j := i
			for j < len(text) && text[j] == '\n' {
				j++
			}
			paras = append(paras, text[start:j])
			start = j
			i = j
			continue
		}
		i++
	}
	if start < len(text) {
		paras = append(paras, text[start:])
	}
	return paras
}

// compile-time check to ensure TokenSplitter implements the Splitter interface
var _ interfaces.Splitter = (*TokenSplitter)(nil)
