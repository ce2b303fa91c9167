package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

// isolate runs the test in an empty directory with the recognised variables unset.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{openAIKeyEnv, logLevelEnv, urlEnv} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "https://www.karkidi.com/job-search", cfg.URL)
	assert.Equal(t, 5*time.Second, cfg.RenderDelay)
	assert.Equal(t, 5, cfg.Clusters)
	assert.Equal(t, ".", cfg.OutDir)
	assert.Equal(t, listing.DefaultPolicy(), cfg.Policy)
	assert.False(t, cfg.Enrich.Enabled)
	assert.Empty(t, cfg.Predict)
	assert.Equal(t, "karkidi_kmeans_model.json", cfg.Paths().Model)
	assert.Equal(t, "karkidi_vectorizer.json", cfg.Paths().Vectorizer)
	assert.Equal(t, "karkidi_clustered_jobs.csv", cfg.Paths().Dataset)
}

func TestLoadFlags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{
		"--url", "http://localhost:8080/jobs",
		"-k", "3",
		"--delay", "250ms",
		"--out-dir", "out",
		"--snapshot", "page.html",
		"--predict", "Data Scientist",
		"--predict", "Chef",
		"--log-level", "debug",
		"--log-dev",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/jobs", cfg.URL)
	assert.Equal(t, 3, cfg.Clusters)
	assert.Equal(t, 250*time.Millisecond, cfg.RenderDelay)
	assert.Equal(t, filepath.Join("out", "karkidi_kmeans_model.json"), cfg.Paths().Model)
	assert.Equal(t, "page.html", cfg.Collector().SnapshotPath)
	assert.Equal(t, []string{"Data Scientist", "Chef"}, cfg.Predict)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadLayering(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "karkidi.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
url: http://from-file/jobs
clusters: 7
render_delay: 2s
policy:
  card_selector: li.job
  fields:
    - field: title
      selector: span.t
      required: true
      on_missing: drop-record
    - field: company
      selector: em
      on_missing: substitute-default
      default: unknown
browser:
  exec_path: /opt/chrome/chrome
`), 0o644))
	t.Setenv(urlEnv, "http://from-env/jobs")

	cfg, err := Load([]string{"--config", file, "-k", "4"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env/jobs", cfg.URL)
	assert.Equal(t, 4, cfg.Clusters)
	assert.Equal(t, 2*time.Second, cfg.RenderDelay)
	assert.Equal(t, "li.job", cfg.Policy.CardSelector)
	require.Len(t, cfg.Policy.Fields, 2)
	assert.Equal(t, "unknown", cfg.Policy.Fields[1].Default)
	assert.Equal(t, "/opt/chrome/chrome", cfg.BrowserOptions().ExecPath)
	assert.Equal(t, ".", cfg.OutDir)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_KEY=sk-test\nLOG_LEVEL=info\n"), 0o644))

	cfg, err := Load([]string{"--enrich"}, io.Discard)
	require.NoError(t, err)

	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, "sk-test", cfg.Enrich.APIKey)
	assert.Equal(t, DefaultOpenAIModel, cfg.Enrich.Model)
	assert.Equal(t, "sk-test", cfg.Enricher().APIKey)
	assert.EqualValues(t, 2, cfg.Enricher().RequestsPerSecond)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		file string
	}{
		{name: "zero clusters", args: []string{"-k", "0"}},
		{name: "negative delay", args: []string{"--delay", "-1s"}},
		{name: "bad log level", args: []string{"--log-level", "chatty"}},
		{name: "enrich without key", args: []string{"--enrich"}},
		{name: "unknown flag", args: []string{"--pages", "3"}},
		{name: "positional argument", args: []string{"extra"}},
		{name: "missing config file", args: []string{"--config", "nope.yaml"}},
		{name: "invalid policy", file: "policy:\n  card_selector: \"\"\n"},
		{name: "malformed yaml", file: "clusters: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			args := tt.args
			if tt.file != "" {
				path := filepath.Join(dir, "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
				args = append(args, "--config", path)
			}
			_, err := Load(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--help"}, io.Discard)
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	example, err := filepath.Abs(filepath.Join("..", "..", "config", "karkidi.example.yaml"))
	require.NoError(t, err)
	isolate(t)

	cfg, err := Load([]string{"--config", example}, io.Discard)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.URL, cfg.URL)
	assert.Equal(t, want.RenderDelay, cfg.RenderDelay)
	assert.Equal(t, want.Clusters, cfg.Clusters)
	assert.Equal(t, want.Policy, cfg.Policy)
	assert.Equal(t, want.Enrich, cfg.Enrich)
	assert.Equal(t, want.Log, cfg.Log)
}
