package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type app struct {
	id   int
	name string
}

func appName(a app) string { return a.name }

func TestNormalize(t *testing.T) {
	assert.Equal(t, "half life 2", Normalize("Half-Life 2"))
	assert.Equal(t, "portal revolution", Normalize("Portal:  Revolution"))
	assert.Equal(t, "a b c", Normalize(" A_b, c. "))
	assert.Equal(t, "portal", Normalize("Portal™"))
	assert.Equal(t, "", Normalize(" -- "))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("portal", "portal"))
	assert.InDelta(t, 12.0/14.0, Similarity("portal", "portal 2"), 1e-9)
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestSearchAndRank(t *testing.T) {
	candidates := []app{
		{1, "Portal 2"},
		{2, "Tetris"},
		{3, "Portal Reloaded"},
		{4, "Portal"},
		{5, "The portal of a very long title name here"},
	}

	got := SearchAndRank("portal", candidates, appName, DefaultThreshold)

	assert.Equal(t, []app{{4, "Portal"}, {1, "Portal 2"}, {3, "Portal Reloaded"}}, got)
}

func TestSearchAndRank_PunctuationInsensitive(t *testing.T) {
	candidates := []app{{1, "Half-Life 2"}, {2, "Half Life: Alyx"}}

	got := SearchAndRank("half life", candidates, appName, DefaultThreshold)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, got[0].id)
}

func TestSearchAndRank_DuplicateKeepsFirst(t *testing.T) {
	candidates := []app{{10, "Portal"}, {11, "Portal"}}

	got := SearchAndRank("portal", candidates, appName, DefaultThreshold)

	assert.Equal(t, []app{{10, "Portal"}}, got)
}

func TestSearchAndRank_DuplicateUsesRawKey(t *testing.T) {
	candidates := []app{{10, "Portal"}, {11, "PORTAL"}, {12, "Portal"}}

	got := SearchAndRank("portal", candidates, appName, DefaultThreshold)

	assert.Equal(t, []app{{10, "Portal"}, {11, "PORTAL"}}, got)
}

func TestSearchAndRank_EmptyQuery(t *testing.T) {
	assert.Empty(t, SearchAndRank("  ", []app{{1, "Portal"}}, appName, DefaultThreshold))
	assert.Empty(t, SearchAndRank("portal", nil, appName, DefaultThreshold))
}

func TestSearchAndRank_Threshold(t *testing.T) {
	candidates := []app{{1, "Portal"}, {2, "Portal 2"}}

	got := SearchAndRank("portal", candidates, appName, 0.9)

	assert.Equal(t, []app{{1, "Portal"}}, got)
}
