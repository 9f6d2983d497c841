package config

// Config holds the configuration of the application
// Use cmd.NewConfig to create a new instance
type Config struct {
	LLM        LLM              `mapstructure:"llm"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Dialog     DialogConfig     `mapstructure:"dialog"`
	Store      StoreConfig      `mapstructure:"store"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type LLM struct {
	Model string `mapstructure:"model"`
	// OpenAIAPIKey is loaded from ENV not config file.
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIEndpoint string `mapstructure:"openai_endpoint"`
}

// ClassifierConfig configures the fallback intent classifier.
// Service is "openai" or "local". ServerURL is only used by the local
// service.
type ClassifierConfig struct {
	Service       string `mapstructure:"service"`
	ServerURL     string `mapstructure:"server_url"`
	TimeoutSecs   int    `mapstructure:"timeout_seconds"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	HistoryWindow int    `mapstructure:"history_window"`
	TokenBudget   int    `mapstructure:"token_budget"`
}

type DialogConfig struct {
	// RefusalMessage overrides the built-in refusal reply for
	// non-telecom messages, if set.
	RefusalMessage string `mapstructure:"refusal_message"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}
