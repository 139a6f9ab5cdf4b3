package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	SourceLocal = "local"
	SourceR2    = "r2"
)

type Config struct {
	DBUrl       string `envconfig:"DB_URL"`
	RabbitMQUrl string `envconfig:"RABBITMQ_URL"`

	Queue    QueueConfig
	Store    StoreConfig
	Files    FilesConfig
	AI       AIConfig
	Pipeline PipelineConfig
	Sections SectionsConfig

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

type QueueConfig struct {
	AnalysisQueue  string `envconfig:"ANALYSIS_QUEUE" default:"resume_analysis"`
	StatusExchange string `envconfig:"STATUS_EXCHANGE" default:"resume_updates"`
	Workers        int    `envconfig:"WORKERS" default:"3"`
}

type StoreConfig struct {
	Backend    string `envconfig:"ANALYSIS_STORE" default:"mongo"`
	MongoURI   string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB    string `envconfig:"MONGO_DB_NAME" default:"resume_analyzer"`
	Collection string `envconfig:"MONGO_COLLECTION" default:"resume_analysis"`
}

type FilesConfig struct {
	Source    string `envconfig:"FILE_SOURCE" default:"local"`
	MediaRoot string `envconfig:"MEDIA_ROOT" default:"./media"`
	R2        R2Config
}

// R2Config holds Cloudflare R2 credentials.
type R2Config struct {
	AccountID string `envconfig:"R2_ACCOUNT_ID"`
	Bucket    string `envconfig:"R2_BUCKET"`
	AccessKey string `envconfig:"R2_ACCESS_KEY"`
	SecretKey string `envconfig:"R2_SECRET_KEY"`
}

type AIConfig struct {
	Enabled bool          `envconfig:"USE_AI_ANALYSIS" default:"false"`
	APIKey  string        `envconfig:"GOOGLE_API_KEY"`
	Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-pro"`
	Timeout time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
}

type PipelineConfig struct {
	MaxAttempts    int           `envconfig:"ANALYSIS_MAX_ATTEMPTS" default:"3"`
	RetryDelay     time.Duration `envconfig:"ANALYSIS_RETRY_DELAY" default:"30s"`
	ExtractTimeout time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"60s"`
	StuckAfter     time.Duration `envconfig:"STUCK_AFTER" default:"30m"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// SectionsConfig lists the keywords that mark each résumé section, in any language.
type SectionsConfig struct {
	Education  []string `envconfig:"SECTION_EDUCATION_KEYWORDS" default:"образование,education,обучение,учеба"`
	Experience []string `envconfig:"SECTION_EXPERIENCE_KEYWORDS" default:"опыт работы,experience,стаж"`
	Skills     []string `envconfig:"SECTION_SKILLS_KEYWORDS" default:"навыки,skills,умения"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBUrl == "" {
		return errors.New("empty DB_URL in environment")
	}

	switch c.Store.Backend {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown ANALYSIS_STORE %q", c.Store.Backend)
	}

	switch c.Files.Source {
	case SourceLocal:
	case SourceR2:
		r2 := c.Files.R2
		if r2.AccountID == "" || r2.Bucket == "" || r2.AccessKey == "" || r2.SecretKey == "" {
			return errors.New("FILE_SOURCE=r2 needs R2_ACCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY and R2_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown FILE_SOURCE %q", c.Files.Source)
	}

	if c.Queue.Workers <= 0 {
		return errors.New("WORKERS must be positive")
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return errors.New("ANALYSIS_MAX_ATTEMPTS must be positive")
	}
	if c.Pipeline.RetryDelay < 0 || c.Pipeline.ExtractTimeout <= 0 || c.Pipeline.StuckAfter <= 0 || c.Pipeline.SweepInterval <= 0 {
		return errors.New("pipeline durations must be positive")
	}
	if c.AI.Enabled && c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if run := c.Pipeline.LongestRun(c.AI); c.Pipeline.StuckAfter <= run {
		return fmt.Errorf("STUCK_AFTER %s must exceed the longest analysis run %s", c.Pipeline.StuckAfter, run)
	}
	return nil
}

// LongestRun is how long a single analysis can legitimately stay in analyzing:
// every attempt hits its extract and AI timeouts and every retry waits the full delay.
// The AI timeout only counts when AI scoring is enabled.
func (p PipelineConfig) LongestRun(ai AIConfig) time.Duration {
	attempt := p.ExtractTimeout
	if ai.Enabled {
		attempt += ai.Timeout
	}
	return time.Duration(p.MaxAttempts)*attempt + time.Duration(p.MaxAttempts-1)*p.RetryDelay
}

// RequireQueue is checked only by commands that talk to RabbitMQ.
func (c *Config) RequireQueue() error {
	if c.RabbitMQUrl == "" {
		return errors.New("empty RABBITMQ_URL in env")
	}
	return nil
}
