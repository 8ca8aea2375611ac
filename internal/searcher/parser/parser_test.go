package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func stopWords(t *testing.T) *tokenizer.StopWords {
	t.Helper()
	stop, err := tokenizer.ParseStopWords("and in on")
	require.NoError(t, err)
	return stop
}

func TestParsePlusAndMinusTerms(t *testing.T) {
	plan, err := Parse("fluffy -collar cat -dog", stopWords(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "fluffy"}, plan.Terms)
	assert.Equal(t, []string{"collar", "dog"}, plan.ExcludeTerms)
	assert.Equal(t, "fluffy -collar cat -dog", plan.RawQuery)
}

func TestParseDeduplicates(t *testing.T) {
	plan, err := Parse("cat cat dog -rat -rat cat", stopWords(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, plan.Terms)
	assert.Equal(t, []string{"rat"}, plan.ExcludeTerms)
}

func TestParseDropsStopWords(t *testing.T) {
	plan, err := Parse("cat and -in dog", stopWords(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, plan.Terms)
	assert.Empty(t, plan.ExcludeTerms)

	plan, err = Parse("and in", stopWords(t))
	require.NoError(t, err)
	assert.Empty(t, plan.Terms)
}

func TestParseEmpty(t *testing.T) {
	plan, err := Parse("   ", nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Terms)
	assert.Empty(t, plan.ExcludeTerms)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"double minus", "a --b", apperrors.ErrInvalidQuerySyntax},
		{"bare minus", "a -", apperrors.ErrInvalidQuerySyntax},
		{"only minus signs", "--", apperrors.ErrInvalidQuerySyntax},
		{"control char", "cat d\x02og", apperrors.ErrInvalidWord},
		{"control char in minus word", "-d\x1fog", apperrors.ErrInvalidWord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(tt.query, stopWords(t))
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, plan)
		})
	}
}

func TestParseInnerMinusIsPartOfWord(t *testing.T) {
	plan, err := Parse("well-groomed -x-ray", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"well-groomed"}, plan.Terms)
	assert.Equal(t, []string{"x-ray"}, plan.ExcludeTerms)
}
