package splitters

import (
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = "Dr. Jane Rivers is a professor of hydrology at the institute.\n" +
	"Her research focuses on watershed dynamics and groundwater recharge.\n\n" +
	"She leads the springs monitoring program and teaches two graduate courses.\n\n" +
	"Recent projects include nutrient transport modeling in karst aquifers,\n" +
	"long-term flow records for the Santa Fe River, and a statewide well survey.\n\n" +
	"Contact: jrivers@example.edu"

func TestSplitEmptyInput(t *testing.T) {
	s, err := NewTokenSplitter(100, 10)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  \n"))
}

func TestSplitDeterminism(t *testing.T) {
	s, err := NewTokenSplitter(40, 8)
	require.NoError(t, err)

	first := s.Split(sampleProfile)
	second := s.Split(sampleProfile)
	assert.Equal(t, first, second)
}

func TestSplitCoverage(t *testing.T) {
	configs := []struct{ size, overlap int }{
		{20, 0},
		{20, 5},
		{40, 8},
		{500, 50},
	}

	for _, cfg := range configs {
		s, err := NewTokenSplitter(cfg.size, cfg.overlap)
		require.NoError(t, err)

		chunks := s.Split(sampleProfile)
		require.NotEmpty(t, chunks)

		var sb strings.Builder
		for _, c := range chunks {
			sb.WriteString(c.Text[c.Overlap:])
		}
		assert.Equal(t, sampleProfile, sb.String(),
			"size=%d overlap=%d must reconstruct the input", cfg.size, cfg.overlap)
	}
}

func TestSplitOversizedParagraph(t *testing.T) {
	// One paragraph, no blank lines, far larger than the chunk size.
	text := strings.Repeat("watershed hydrology biogeochemistry springs aquifer recharge ", 60)
	text = strings.TrimSpace(text)

	s, err := NewTokenSplitter(30, 6)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text[c.Overlap:])
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitChunkSizeBound(t *testing.T) {
	s, err := NewTokenSplitter(30, 6)
	require.NoError(t, err)
	tke, err := tiktoken.GetEncoding("cl100k_base")
	require.NoError(t, err)

	for _, c := range s.Split(sampleProfile) {
		count := len(tke.Encode(c.Text, nil, nil))
		assert.LessOrEqual(t, count, s.ChunkSize)
	}
}

func TestSplitOverlapIsSharedWithPreviousChunk(t *testing.T) {
	s, err := NewTokenSplitter(25, 5)
	require.NoError(t, err)

	chunks := s.Split(sampleProfile)
	require.Greater(t, len(chunks), 1)

	assert.Zero(t, chunks[0].Overlap)
	for i := 1; i < len(chunks); i++ {
		prefix := chunks[i].Text[:chunks[i].Overlap]
		assert.True(t, strings.HasSuffix(chunks[i-1].Text, prefix),
			"chunk %d prefix %q must be the tail of the previous chunk", i, prefix)
	}
}

func TestOverlapClampedBelowChunkSize(t *testing.T) {
	s, err := NewTokenSplitter(10, 50)
	require.NoError(t, err)
	assert.Equal(t, 9, s.ChunkOverlap)

	_, err = NewTokenSplitter(0, 0)
	assert.Error(t, err)
}
