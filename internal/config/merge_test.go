package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_LastWriterWinsPerSectionName(t *testing.T) {
	a := mustParse(t, `agent "bot" { model = "gpt-4" }`)
	b := mustParse(t, `agent "bot" { model = "gpt-4-turbo" }`)
	merged := Merge(AstToConfig(a, Options{}), AstToConfig(b, Options{}))

	require.Contains(t, merged.Agents, "bot")
	assert.Equal(t, "gpt-4-turbo", merged.Agents["bot"].Model)
}

func TestMerge_DisjointSectionsCombine(t *testing.T) {
	a := mustParse(t, `agent "bot" { model = "gpt-4" }`)
	b := mustParse(t, `workflow "w" { trigger = "manual" }`)
	merged := Merge(AstToConfig(a, Options{}), AstToConfig(b, Options{}))

	assert.Contains(t, merged.Agents, "bot")
	assert.Contains(t, merged.Workflows, "w")
}

func TestMerge_PluginsConcatenateRatherThanOverwrite(t *testing.T) {
	a := mustParse(t, `plugin "p1" { source = "registry/p1" version = "1.0" }`)
	b := mustParse(t, `plugin "p2" { source = "registry/p2" version = "2.0" }`)
	merged := Merge(AstToConfig(a, Options{}), AstToConfig(b, Options{}))

	require.Len(t, merged.Plugins, 2)
	names := []string{merged.Plugins[0].Name, merged.Plugins[1].Name}
	assert.ElementsMatch(t, []string{"p1", "p2"}, names)
}

func TestMerge_NilConfigurationsAreSkipped(t *testing.T) {
	a := mustParse(t, `agent "bot" { model = "gpt-4" }`)
	merged := Merge(nil, AstToConfig(a, Options{}), nil)
	assert.Contains(t, merged.Agents, "bot")
}

func TestMerge_NoArgsReturnsEmptyConfiguration(t *testing.T) {
	merged := Merge()
	assert.Empty(t, merged.Agents)
	assert.Empty(t, merged.Sections)
}
