package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

func TestBuildFilterExpressionEscapesValues(t *testing.T) {
	s := &MilvusStore{}

	assert.Equal(t, "", s.buildFilterExpression(nil))
	assert.Equal(t, `doc_type == "general"`,
		s.buildFilterExpression(map[string]string{schema.MetadataKeyDocType: schema.KindGeneral}))

	// Quotes and backslashes in values must not break out of the literal.
	assert.Equal(t, `source_id == "faculty_o\"brien"`,
		s.buildFilterExpression(map[string]string{schema.MetadataKeySourceID: `faculty_o"brien`}))
	assert.Equal(t, `source_id == "a\\b"`,
		s.buildFilterExpression(map[string]string{schema.MetadataKeySourceID: `a\b`}))
}

func TestEscapeExprString(t *testing.T) {
	assert.Equal(t, "plain", escapeExprString("plain"))
	assert.Equal(t, `say \"hi\"`, escapeExprString(`say "hi"`))
	assert.Equal(t, `\\\"`, escapeExprString(`\"`))
}
