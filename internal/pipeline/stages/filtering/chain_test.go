package filtering

import (
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost(id string, score int) *models.PostRecord {
	return &models.PostRecord{ID: id, Score: score, Title: "hello world"}
}

func TestChainAND(t *testing.T) {
	min := 10
	chain := &Chain{
		Composition: CompositionAND,
		Filters:     []Filter{&ScoreFilter{Min: &min}},
	}

	low := chain.Evaluate(samplePost("a", 5))
	assert.False(t, low.Passed)

	high := chain.Evaluate(samplePost("b", 50))
	assert.True(t, high.Passed)
}

func TestChainOR(t *testing.T) {
	min := 100
	chain := &Chain{
		Composition: CompositionOR,
		Filters: []Filter{
			&ScoreFilter{Min: &min},
			&NSFWFilter{Mode: NSFWExclude},
		},
	}

	post := samplePost("a", 1)
	post.IsNSFW = false
	decision := chain.Evaluate(post)
	assert.True(t, decision.Passed, "should pass via the NSFW filter even though score is low")
}

func TestChainEmptyPassesEverything(t *testing.T) {
	chain := &Chain{Composition: CompositionAND}
	decision := chain.Evaluate(samplePost("a", -100))
	assert.True(t, decision.Passed)
}

func TestScoreFilterValidateConfig(t *testing.T) {
	min, max := 10, 5
	f := &ScoreFilter{Min: &min, Max: &max}
	errs := f.ValidateConfig()
	require.Len(t, errs, 1)
}

func TestKeywordFilterWholeWords(t *testing.T) {
	f := &KeywordFilter{Include: []string{"cat"}, WholeWords: true}
	post := &models.PostRecord{Title: "category theory"}
	passed, err := f.Pass(post)
	require.NoError(t, err)
	assert.False(t, passed, "whole_words must not match 'cat' inside 'category'")

	post2 := &models.PostRecord{Title: "my cat is great"}
	passed2, err := f.Pass(post2)
	require.NoError(t, err)
	assert.True(t, passed2)
}

func TestDomainFilterRegistrableDomain(t *testing.T) {
	f := &DomainFilter{Allow: []string{"redd.it"}}
	post := &models.PostRecord{MediaURL: "https://i.redd.it/abc123.jpg"}
	passed, err := f.Pass(post)
	require.NoError(t, err)
	assert.True(t, passed)

	post2 := &models.PostRecord{MediaURL: "https://example.com/x.jpg"}
	passed2, err := f.Pass(post2)
	require.NoError(t, err)
	assert.False(t, passed2)
}

func TestNSFWFilterModes(t *testing.T) {
	nsfwPost := &models.PostRecord{IsNSFW: true}
	sfwPost := &models.PostRecord{IsNSFW: false}

	exclude := &NSFWFilter{Mode: NSFWExclude}
	p, _ := exclude.Pass(nsfwPost)
	assert.False(t, p)
	p, _ = exclude.Pass(sfwPost)
	assert.True(t, p)

	only := &NSFWFilter{Mode: NSFWOnly}
	p, _ = only.Pass(nsfwPost)
	assert.True(t, p)
	p, _ = only.Pass(sfwPost)
	assert.False(t, p)
}
