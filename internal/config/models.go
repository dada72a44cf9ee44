package config

import (
	"fmt"
	"time"
)

// AnalysisConfig represents the configuration for the text analysis stage
type AnalysisConfig struct {
	Workers        int
	MaxBodySize    int
	Lemmatizer     string
	StopwordsFile  string
	HTMLExtraction bool
}

// NERConfig represents the configuration for entity extraction
type NERConfig struct {
	Provider string
	Timeout  time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ScoringConfig represents the tunable constants of the priority scorer
type ScoringConfig struct {
	SenderWeight        float64
	RecencyWeight       float64
	ContentWeight       float64
	PatternWeight       float64
	ReplyBonus          float64
	ReplyWindow         time.Duration
	MaxScore            float64
	HighThreshold       float64
	MediumThreshold     float64
	OrganizationDomains []string
	LexiconFile         string
}

// OverridesConfig represents the configuration of the override ledger and its store
type OverridesConfig struct {
	Retention  time.Duration
	StoreType  string
	FilePath   string
	SQLitePath string
	MySQLDSN   string
}

// ServerConfig represents the configuration of the HTTP server
type ServerConfig struct {
	ListenAddress string
}

// WatchConfig represents the configuration of the periodic re-triage job
type WatchConfig struct {
	Schedule string
	Timezone string
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Workers:        c.GetInt("analysis.workers"),
		MaxBodySize:    c.GetInt("analysis.max_body_size"),
		Lemmatizer:     c.GetString("analysis.lemmatizer"),
		StopwordsFile:  c.GetString("analysis.stopwords_file"),
		HTMLExtraction: c.GetBool("analysis.html_extraction"),
	}
}

// GetNER returns the entity extraction configuration
func (c *Config) GetNER() (NERConfig, error) {
	timeout, err := c.GetDuration("ner.timeout")
	if err != nil {
		return NERConfig{}, fmt.Errorf("invalid ner timeout: %w", err)
	}
	return NERConfig{
		Provider: c.GetString("ner.provider"),
		Timeout:  timeout,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetScoring returns the scoring configuration
func (c *Config) GetScoring() (ScoringConfig, error) {
	window, err := c.GetDuration("scoring.reply_window")
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("invalid reply window: %w", err)
	}

	sc := ScoringConfig{
		SenderWeight:        c.GetFloat64("scoring.weights.sender"),
		RecencyWeight:       c.GetFloat64("scoring.weights.recency"),
		ContentWeight:       c.GetFloat64("scoring.weights.content"),
		PatternWeight:       c.GetFloat64("scoring.weights.pattern"),
		ReplyBonus:          c.GetFloat64("scoring.reply_bonus"),
		ReplyWindow:         window,
		MaxScore:            c.GetFloat64("scoring.max_score"),
		HighThreshold:       c.GetFloat64("scoring.thresholds.high"),
		MediumThreshold:     c.GetFloat64("scoring.thresholds.medium"),
		OrganizationDomains: c.GetStringSlice("scoring.organization_domains"),
		LexiconFile:         c.GetString("scoring.lexicon_file"),
	}
	if sc.MediumThreshold > sc.HighThreshold {
		return ScoringConfig{}, fmt.Errorf("medium threshold %.2f exceeds high threshold %.2f",
			sc.MediumThreshold, sc.HighThreshold)
	}
	return sc, nil
}

// GetOverrides returns the override ledger configuration
func (c *Config) GetOverrides() (OverridesConfig, error) {
	retention, err := c.GetDuration("overrides.retention")
	if err != nil {
		return OverridesConfig{}, fmt.Errorf("invalid override retention: %w", err)
	}
	return OverridesConfig{
		Retention:  retention,
		StoreType:  c.GetString("overrides.store.type"),
		FilePath:   c.GetString("overrides.store.file_path"),
		SQLitePath: c.GetString("overrides.store.sqlite_path"),
		MySQLDSN:   c.GetString("overrides.store.mysql_dsn"),
	}, nil
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
	}
}

// GetWatch returns the watch job configuration
func (c *Config) GetWatch() WatchConfig {
	return WatchConfig{
		Schedule: c.GetString("watch.schedule"),
		Timezone: c.GetString("watch.timezone"),
	}
}
