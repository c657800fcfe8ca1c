package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type splitTokenizer struct{}

func (splitTokenizer) Cut(text string) []string {
	return strings.Split(text, " ")
}

func TestNoiseToken(t *testing.T) {
	require.True(t, noiseToken(""))
	require.True(t, noiseToken(",.!"))
	require.True(t, noiseToken("  "))
	require.True(t, noiseToken("+-*"))
	require.False(t, noiseToken("desk"))
	require.False(t, noiseToken("a,b"))
}

func TestTopKeywordsRanksByFrequency(t *testing.T) {
	texts := []string{"broken desk", "  ,.!", "broken chair"}

	keywords := topKeywords(splitTokenizer{}, texts, 150)
	require.NotEmpty(t, keywords)
	require.Equal(t, "broken", keywords[0].Word)
	require.Equal(t, 2, keywords[0].Count)
	for _, keyword := range keywords {
		require.False(t, noiseToken(keyword.Word))
	}
}

func TestTopKeywordsHonorsLimit(t *testing.T) {
	keywords := topKeywords(splitTokenizer{}, []string{"a b c d e"}, 2)
	require.Len(t, keywords, 2)
}
