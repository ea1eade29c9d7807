package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

func TestPartition(t *testing.T) {
	partitioned := Partition(sampleSnapshot())

	assert.Len(t, partitioned, len(domain.Categories))
	assert.Len(t, partitioned["Salads"], 1)
	assert.Len(t, partitioned["Soups"], 2)
	assert.Len(t, partitioned["Food"], 1)
	assert.NotNil(t, partitioned["Desserts"])
	assert.Empty(t, partitioned["Desserts"])
	assert.NotContains(t, partitioned, "Getränke")
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(sampleSnapshot())
	require.NoError(t, err)

	assert.Contains(t, prompt, `## Salads: [{"name":"Große Salatschale","price":1.85}]`)
	assert.Contains(t, prompt, `## Soups: [{"name":"Tomatensuppe","price":0.9},{"name":"Linseneintopf","price":null}]`)
	assert.Contains(t, prompt, "## Actions: []")
	assert.Contains(t, prompt, "## Desserts: []")
	assert.NotContains(t, prompt, "Apfelschorle")
	assert.Contains(t, prompt, "return an empty object")
}

func TestBuildPrompt_EmptyMenu(t *testing.T) {
	prompt, err := BuildPrompt(&domain.MenuSnapshot{})
	require.NoError(t, err)

	for _, category := range domain.Categories {
		assert.Contains(t, prompt, "## "+category.Name+": []")
	}
}
