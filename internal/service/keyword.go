package service

import (
	"sort"
	"unicode"

	"github.com/go-ego/gse"

	"github.com/hfiuc/uc-reservation-api/internal/dto"
)

// Tokenizer splits free-form reservation reasons into candidate keywords.
type Tokenizer interface {
	Cut(text string) []string
}

// GseTokenizer segments mixed Chinese and Latin text.
type GseTokenizer struct {
	seg gse.Segmenter
}

// NewGseTokenizer loads the default embedded dictionary.
func NewGseTokenizer() (*GseTokenizer, error) {
	t := &GseTokenizer{}
	if err := t.seg.LoadDict(); err != nil {
		return nil, err
	}
	return t, nil
}

// Cut returns the segmented tokens of text.
func (t *GseTokenizer) Cut(text string) []string {
	return t.seg.Cut(text, true)
}

// noiseToken reports whether every rune is punctuation, whitespace or a
// symbol. Such tokens carry no topical signal and are dropped from rankings.
func noiseToken(token string) bool {
	if token == "" {
		return true
	}
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// topKeywords tokenises the texts and returns the most frequent tokens,
// highest count first with ties broken alphabetically, capped at limit.
func topKeywords(tokenizer Tokenizer, texts []string, limit int) []dto.KeywordCount {
	counts := map[string]int{}
	for _, text := range texts {
		for _, token := range tokenizer.Cut(text) {
			if noiseToken(token) {
				continue
			}
			counts[token]++
		}
	}

	ranked := make([]dto.KeywordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, dto.KeywordCount{Word: word, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
