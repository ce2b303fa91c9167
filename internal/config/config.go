// Package config resolves run settings. Later layers win:
// built-in defaults, the YAML file named by --config, .env and the process
// environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/cluster"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/collector"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/enrich"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/logging"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/persist"
)

const (
	openAIKeyEnv = "OPENAI_KEY"
	logLevelEnv  = "LOG_LEVEL"
	urlEnv       = "KARKIDI_URL"

	DefaultOpenAIModel = "gpt-4o-mini"
)

type Config struct {
	URL         string         `yaml:"url"`
	RenderDelay time.Duration  `yaml:"render_delay"`
	Clusters    int            `yaml:"clusters"`
	OutDir      string         `yaml:"out_dir"`
	Snapshot    string         `yaml:"snapshot"`
	Policy      listing.Policy `yaml:"policy"`
	Browser     BrowserConfig  `yaml:"browser"`
	Enrich      EnrichConfig   `yaml:"enrich"`
	Log         logging.Config `yaml:"log"`

	// Predict lists titles to classify with saved artifacts instead of running
	// the pipeline.
	Predict []string `yaml:"-"`
}

type BrowserConfig struct {
	ExecPath  string `yaml:"exec_path"`
	UserAgent string `yaml:"user_agent"`
}

type EnrichConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// APIKey only comes from the environment.
	APIKey string `yaml:"-"`
}

// Default reproduces the stock run: karkidi job search, 5s render delay,
// five clusters, outputs in the working directory.
func Default() Config {
	return Config{
		URL:         collector.DefaultURL,
		RenderDelay: collector.DefaultRenderDelay,
		Clusters:    cluster.DefaultClusters,
		OutDir:      ".",
		Policy:      listing.DefaultPolicy(),
		Enrich:      EnrichConfig{Model: DefaultOpenAIModel, RequestsPerSecond: enrich.DefaultRequestsPerSecond},
		Log:         logging.DefaultConfig(),
	}
}

type flagValues struct {
	configPath  string
	url         string
	clusters    int
	delay       time.Duration
	outDir      string
	snapshot    string
	chromePath  string
	enrich      bool
	openAIModel string
	predict     []string
	logLevel    string
	logDev      bool
}

func newFlagSet(name string, out io.Writer) (*pflag.FlagSet, *flagValues) {
	def := Default()
	fv := &flagValues{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&fv.configPath, "config", "", "YAML config file")
	fs.StringVar(&fv.url, "url", def.URL, "job search page to scrape")
	fs.IntVarP(&fv.clusters, "clusters", "k", def.Clusters, "number of clusters")
	fs.DurationVar(&fv.delay, "delay", def.RenderDelay, "time to let the page render before reading it")
	fs.StringVar(&fv.outDir, "out-dir", def.OutDir, "directory for the model, vectorizer and dataset files")
	fs.StringVar(&fv.snapshot, "snapshot", "", "write a minified copy of the rendered page to this file")
	fs.StringVar(&fv.chromePath, "chrome-path", "", "Chrome binary to launch")
	fs.BoolVar(&fv.enrich, "enrich", false, "ask OpenAI for the skills behind each title (needs "+openAIKeyEnv+")")
	fs.StringVar(&fv.openAIModel, "openai-model", def.Enrich.Model, "chat model used by --enrich")
	fs.StringArrayVar(&fv.predict, "predict", nil, "classify a job title with the saved model (repeatable)")
	fs.StringVar(&fv.logLevel, "log-level", def.Log.Level, "debug, info, warn or error")
	fs.BoolVar(&fv.logDev, "log-dev", false, "human readable logs")
	return fs, fv
}

// Load parses args (without the program name) and resolves the layered
// configuration. A --help request returns pflag.ErrHelp.
func Load(args []string, usage io.Writer) (Config, error) {
	fs, fv := newFlagSet("karkidi", usage)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("config: unexpected arguments %v", fs.Args())
	}

	cfg := Default()
	if fv.configPath != "" {
		if err := cfg.loadFile(fv.configPath); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyFlags(fs, fv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// keys absent from the file keep their defaults
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(urlEnv); v != "" {
		c.URL = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
	c.Enrich.APIKey = os.Getenv(openAIKeyEnv)
}

func (c *Config) applyFlags(fs *pflag.FlagSet, fv *flagValues) {
	if fs.Changed("url") {
		c.URL = fv.url
	}
	if fs.Changed("clusters") {
		c.Clusters = fv.clusters
	}
	if fs.Changed("delay") {
		c.RenderDelay = fv.delay
	}
	if fs.Changed("out-dir") {
		c.OutDir = fv.outDir
	}
	if fs.Changed("snapshot") {
		c.Snapshot = fv.snapshot
	}
	if fs.Changed("chrome-path") {
		c.Browser.ExecPath = fv.chromePath
	}
	if fs.Changed("enrich") {
		c.Enrich.Enabled = fv.enrich
	}
	if fs.Changed("openai-model") {
		c.Enrich.Model = fv.openAIModel
	}
	if fs.Changed("log-level") {
		c.Log.Level = fv.logLevel
	}
	if fs.Changed("log-dev") {
		c.Log.Development = fv.logDev
	}
	c.Predict = fv.predict
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: url is empty")
	}
	if c.Clusters < 1 {
		return fmt.Errorf("config: clusters must be at least 1, got %d", c.Clusters)
	}
	if c.RenderDelay < 0 {
		return fmt.Errorf("config: negative render delay %s", c.RenderDelay)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Enrich.Enabled && c.Enrich.APIKey == "" {
		return fmt.Errorf("config: enrichment needs %s", openAIKeyEnv)
	}
	return nil
}

// Collector returns the collector settings.
func (c Config) Collector() collector.Config {
	return collector.Config{
		URL:          c.URL,
		RenderDelay:  c.RenderDelay,
		Policy:       c.Policy,
		SnapshotPath: c.Snapshot,
	}
}

// Enricher returns the enrichment client settings.
func (c Config) Enricher() enrich.Config {
	return enrich.Config{
		APIKey:            c.Enrich.APIKey,
		Model:             c.Enrich.Model,
		BaseURL:           c.Enrich.BaseURL,
		RequestsPerSecond: c.Enrich.RequestsPerSecond,
	}
}

func (c Config) BrowserOptions() collector.BrowserOptions {
	return collector.BrowserOptions{ExecPath: c.Browser.ExecPath, UserAgent: c.Browser.UserAgent}
}

// Paths returns where the run's artifacts are written.
func (c Config) Paths() persist.Paths {
	return persist.PathsIn(c.OutDir)
}
