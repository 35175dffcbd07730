package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizpipe/internal/shared/testutil"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSeriesCommand(t *testing.T) {
	dir := testutil.WriteDatasets(t)
	ratings := filepath.Join(dir, testutil.RatingsFile)

	t.Run("json", func(t *testing.T) {
		out, _, err := runCLI(t, "series", "--file", ratings, "--outer", "2015")
		require.NoError(t, err)

		var resp struct {
			Groups   []json.RawMessage `json:"groups"`
			MaxCount int               `json:"max_count"`
			Total    int               `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Len(t, resp.Groups, 1)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.MaxCount)
	})

	t.Run("csv", func(t *testing.T) {
		out, _, err := runCLI(t, "series", "-o", "csv", "--file", ratings, "--outer", "2015,2016")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Equal(t, "outer,inner,count,representative", lines[0])
		assert.Len(t, lines, 21)
		assert.Contains(t, out, "2015,7,2,")
	})
}

func TestJoinCommand(t *testing.T) {
	dir := testutil.WriteDatasets(t)

	out, stderr, err := runCLI(t, "join", "-o", "csv",
		"--regions", filepath.Join(dir, testutil.RegionsFile),
		"--counts", filepath.Join(dir, testutil.CountsFile))
	require.NoError(t, err)

	assert.Contains(t, out, "key,value,class")
	assert.Contains(t, out, "California,120,")
	assert.Contains(t, out, "Texas,1200,")
	assert.Contains(t, out, "Oregon,,-1")
	assert.Contains(t, stderr, "skipped")
	assert.Contains(t, stderr, "Nevada")
}

func TestTopNCommand(t *testing.T) {
	dir := testutil.WriteDatasets(t)
	ratings := filepath.Join(dir, testutil.RatingsFile)

	t.Run("json", func(t *testing.T) {
		out, _, err := runCLI(t, "topn", "--file", ratings, "--outer", "2015", "--inner", "7")
		require.NoError(t, err)

		var resp struct {
			Records []map[string]interface{} `json:"records"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Records, 2)
		assert.Equal(t, "Catan", resp.Records[0]["name"])
		assert.Equal(t, "Carcassonne", resp.Records[1]["name"])
	})

	t.Run("csv to file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "reports", "top.csv")
		out, _, err := runCLI(t, "topn", "-o", "csv", "--out", target,
			"--file", ratings, "--outer", "2015", "--inner", "7", "--limit", "1")
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Catan")
		assert.NotContains(t, string(data), "Carcassonne")
	})
}

func TestCommandErrors(t *testing.T) {
	dir := testutil.WriteDatasets(t)
	ratings := filepath.Join(dir, testutil.RatingsFile)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown output format", []string{"series", "-o", "xml", "--file", ratings}, "unsupported output format"},
		{"missing required flag", []string{"topn", "--file", ratings, "--outer", "2015"}, "inner"},
		{"negative limit", []string{"topn", "--file", ratings, "--outer", "2015", "--inner", "7", "--limit", "-1"}, "negative"},
		{"missing file", []string{"series", "--file", filepath.Join(dir, "nope.csv")}, "nope.csv"},
		{"unsupported extension", []string{"series", "--file", filepath.Join(dir, testutil.RegionsFile)}, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
