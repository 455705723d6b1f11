package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/scope/search"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "error"
data_dir = "` + filepath.ToSlash(dir) + `"

[cache]
backend = "memory"

[[databases]]
name = "T3/Wheat"
address = "https://wheat.example.org/brapi/v1"
auth_token = "secret"

[databases.params]
programDbId = "42"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatabasesCommand(t *testing.T) {
	out, err := execute(t, "databases", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "T3/Wheat")
	assert.Contains(t, out, "https://wheat.example.org/brapi/v1")
	assert.NotContains(t, out, "secret")
}

func TestCacheInfoEmpty(t *testing.T) {
	out, err := execute(t, "cache", "info", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Cached databases: none")
}

func TestMatchRequiresTerms(t *testing.T) {
	_, err := execute(t, "match", "--config", writeConfig(t), "-d", "T3/Wheat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no terms")
}

func TestMatchUnknownDatabase(t *testing.T) {
	_, err := execute(t, "match", "--config", writeConfig(t), "-d", "Oats", "KANSAS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "T3/Wheat")
}

func TestMatchOptionsConfig(t *testing.T) {
	cmd := newMatchCommand(newCommandContext(new(string)))
	require.NoError(t, cmd.Flags().Parse([]string{"--routines", "exact,prefix", "--types", "name,cross", "--max-edit-distance", "3"}))

	var opts matchOptions
	opts.routines, _ = cmd.Flags().GetStringSlice("routines")
	opts.types, _ = cmd.Flags().GetStringSlice("types")
	opts.maxEdit, _ = cmd.Flags().GetInt("max-edit-distance")

	cfg, err := opts.config(cmd, config.SearchDefaults{Routines: []string{"exact"}, MaxEditDistance: 1, SubstringMinLength: 4, Prefixes: []string{"PI"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "prefix"}, cfg.Routines)
	assert.Equal(t, 3, cfg.RoutineOptions.MaxEditDistance)
	assert.Equal(t, 4, cfg.RoutineOptions.SubstringMinLength)
	assert.Equal(t, []string{"PI"}, cfg.RoutineOptions.Prefixes)
	assert.Equal(t, search.IncludeTypes{Name: true, Cross: true}, cfg.IncludeTypes)

	opts.types = []string{"pedigree"}
	_, err = opts.config(cmd, config.SearchDefaults{})
	assert.Error(t, err)
}

func TestPrintMatches(t *testing.T) {
	results := search.Results{
		"KANSAS": {
			SearchTerm:     "KANSAS",
			ExactMatchName: "KANSAS",
			Matches: map[string]*search.Match{
				"KANSAS": {RecordID: "1", MatchedTerms: []search.MatchedTerm{{Routine: search.RoutineRef{Key: "exact", Weight: 100}}}},
				"KANZAS": {RecordID: "2", MatchedTerms: []search.MatchedTerm{{Routine: search.RoutineRef{Key: "edit_distance", Weight: 10}}}},
			},
		},
		"OAT": {SearchTerm: "OAT", Matches: map[string]*search.Match{}},
	}

	var out bytes.Buffer
	printMatches(&out, search.Terms("KANSAS", "OAT", "KANSAS"), results)
	text := out.String()

	assert.Contains(t, text, "KANSAS *")
	assert.Less(t, strings.Index(text, "KANSAS *"), strings.Index(text, "KANZAS"))
	assert.Contains(t, text, "edit_distance")
	assert.Contains(t, text, "OAT")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "A")
	assert.Equal(t, 6, len(strings.Split(strings.TrimSpace(out), "\n")))
}
