// Package config loads coursetree's configuration from defaults, an
// optional YAML file, and environment variables, following the
// layered-viper pattern used by the teacher's CLI sibling repos.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgonzap30/coursetree/internal/hierarchy"
)

// Config holds all application configuration.
type Config struct {
	Server    Server    `mapstructure:"server" yaml:"server"`
	Embedding Embedding `mapstructure:"embedding" yaml:"embedding"`
	Backend   Backend   `mapstructure:"backend" yaml:"backend"`
	Build     Build     `mapstructure:"build" yaml:"build"`
	Traverse  Traverse  `mapstructure:"traverse" yaml:"traverse"`
	Logging   Logging   `mapstructure:"logging" yaml:"logging"`
}

// Server holds HTTP API server configuration.
type Server struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Embedding holds the external embedding service client configuration.
type Embedding struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Backend holds the abstractive summarization backend configuration.
type Backend struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"` // "", openai, anthropic, ollama
	OpenAIKey      string        `mapstructure:"openai_api_key" yaml:"openai_api_key,omitempty"`
	AnthropicKey   string        `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key,omitempty"`
	OllamaURL      string        `mapstructure:"ollama_url" yaml:"ollama_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// Build holds the hierarchy builder's default configuration.
type Build struct {
	MaxLevels           int     `mapstructure:"max_levels" yaml:"max_levels"`
	MinNodesPerLevel    int     `mapstructure:"min_nodes_per_level" yaml:"min_nodes_per_level"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	MinClusterSize      int     `mapstructure:"min_cluster_size" yaml:"min_cluster_size"`
	MaxClusterSize      int     `mapstructure:"max_cluster_size" yaml:"max_cluster_size"`
	Linkage             string  `mapstructure:"linkage" yaml:"linkage"`
	UseLLM              bool    `mapstructure:"use_llm" yaml:"use_llm"`
	TargetSummaryLength int     `mapstructure:"target_summary_length" yaml:"target_summary_length"`
	MaxInputTokens      int     `mapstructure:"max_input_tokens" yaml:"max_input_tokens"`
	IncludeKeywords     bool    `mapstructure:"include_keywords" yaml:"include_keywords"`
}

// Traverse holds the traverser's default configuration.
type Traverse struct {
	Strategy       string  `mapstructure:"strategy" yaml:"strategy"`
	MaxDepth       int     `mapstructure:"max_depth" yaml:"max_depth"`
	MaxNodes       int     `mapstructure:"max_nodes" yaml:"max_nodes"`
	MinSimilarity  float64 `mapstructure:"min_similarity" yaml:"min_similarity"`
	IncludeParents bool    `mapstructure:"include_parents" yaml:"include_parents"`
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Load reads configuration from defaults, then configFile (if non-empty, or
// ./coursetree.yaml / $HOME/coursetree.yaml if found), then COURSETREE_*
// environment variables, in that order of increasing precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName("coursetree")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("COURSETREE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("embedding.base_url", "http://localhost:8090")
	v.SetDefault("embedding.timeout", "30s")

	v.SetDefault("backend.provider", "")
	v.SetDefault("backend.ollama_url", "http://localhost:11434")
	v.SetDefault("backend.request_timeout", "60s")

	def := hierarchy.DefaultBuildConfig()
	v.SetDefault("build.max_levels", def.MaxLevels)
	v.SetDefault("build.min_nodes_per_level", def.MinNodesPerLevel)
	v.SetDefault("build.similarity_threshold", def.Cluster.SimilarityThreshold)
	v.SetDefault("build.min_cluster_size", def.Cluster.MinClusterSize)
	v.SetDefault("build.max_cluster_size", def.Cluster.MaxClusterSize)
	v.SetDefault("build.linkage", string(def.Cluster.Linkage))
	v.SetDefault("build.use_llm", def.Summary.UseLLM)
	v.SetDefault("build.target_summary_length", def.Summary.TargetLength)
	v.SetDefault("build.max_input_tokens", def.Summary.MaxInputTokens)
	v.SetDefault("build.include_keywords", def.Summary.IncludeKeywords)

	tdef := hierarchy.DefaultTraverseConfig()
	v.SetDefault("traverse.strategy", string(tdef.Strategy))
	v.SetDefault("traverse.max_depth", tdef.MaxDepth)
	v.SetDefault("traverse.max_nodes", tdef.MaxNodes)
	v.SetDefault("traverse.min_similarity", tdef.MinSimilarity)
	v.SetDefault("traverse.include_parents", tdef.IncludeParents)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// applyEnvOverrides fills in secret-bearing fields that intentionally have
// no viper default (so they never appear in a written config file), mapping
// from their own conventional environment variable names.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Backend.OpenAIKey == "" {
		cfg.Backend.OpenAIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Backend.AnthropicKey == "" {
		cfg.Backend.AnthropicKey = v
	}
}

// HierarchyBuildConfig maps Config.Build into a hierarchy.BuildConfig.
func (c *Config) HierarchyBuildConfig() hierarchy.BuildConfig {
	return hierarchy.BuildConfig{
		MaxLevels:        c.Build.MaxLevels,
		MinNodesPerLevel: c.Build.MinNodesPerLevel,
		Cluster: hierarchy.ClusterConfig{
			SimilarityThreshold: c.Build.SimilarityThreshold,
			MinClusterSize:      c.Build.MinClusterSize,
			MaxClusterSize:      c.Build.MaxClusterSize,
			Linkage:             hierarchy.Linkage(c.Build.Linkage),
		},
		Summary: hierarchy.SummaryConfig{
			UseLLM:          c.Build.UseLLM,
			LLMProvider:     c.Backend.Provider,
			TargetLength:    c.Build.TargetSummaryLength,
			MaxInputTokens:  c.Build.MaxInputTokens,
			IncludeKeywords: c.Build.IncludeKeywords,
		},
	}
}

// HierarchyTraverseConfig maps Config.Traverse into a hierarchy.TraverseConfig.
func (c *Config) HierarchyTraverseConfig() hierarchy.TraverseConfig {
	return hierarchy.TraverseConfig{
		Strategy:       hierarchy.Strategy(c.Traverse.Strategy),
		MaxDepth:       c.Traverse.MaxDepth,
		MaxNodes:       c.Traverse.MaxNodes,
		MinSimilarity:  c.Traverse.MinSimilarity,
		IncludeParents: c.Traverse.IncludeParents,
	}
}
