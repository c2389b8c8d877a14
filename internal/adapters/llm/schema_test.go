package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGenaiSchemaQuiz(t *testing.T) {
	s := toGenaiSchema(quizSchema.schema)

	require.Equal(t, genai.TypeArray, s.Type)
	item := s.Items
	require.NotNil(t, item)
	assert.Equal(t, genai.TypeObject, item.Type)
	assert.ElementsMatch(t, []string{"id", "question", "options", "correctAnswer", "explanation"}, item.Required)
	assert.Equal(t, []string{"id", "question", "options", "correctAnswer", "explanation"}, item.PropertyOrdering)

	assert.Equal(t, genai.TypeInteger, item.Properties["id"].Type)
	options := item.Properties["options"]
	assert.Equal(t, genai.TypeArray, options.Type)
	assert.Equal(t, genai.TypeString, options.Items.Type)
}

func TestObjectRootWrapsArrays(t *testing.T) {
	s, wrapped := objectRoot(vocabularySchema.schema)
	require.True(t, wrapped)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{wrapKey}, s.Required)
	assert.Same(t, vocabularySchema.schema, s.Properties[wrapKey])

	s, wrapped = objectRoot(translationSchema.schema)
	assert.False(t, wrapped)
	assert.Same(t, translationSchema.schema, s)
}
