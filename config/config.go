package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// ZapNode specifics
	WhatsApp     WhatsAppConfig
	Features     FeaturesConfig
	Groq         GroqConfig
	Storage      StorageConfig
	Conversation ConversationConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// WhatsAppConfig configures the gateway bridge and the pre-provisioned
// default session.
type WhatsAppConfig struct {
	GatewayURL          string
	DefaultSession      string
	StartDefaultSession bool
	Headless            bool
	ChromePath          string

	// WelcomeTo receives a greeting when a session becomes ready; empty
	// disables the welcome message.
	WelcomeTo string
}

type FeaturesConfig struct {
	AutoReply           bool
	WelcomeMessage      bool
	IgnoreGroups        bool
	IgnoreStatus        bool
	IgnoreNewsletters   bool
	AutoCleanupOnLogout bool
	AIResponses         bool
}

type GroqConfig struct {
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

type StorageConfig struct {
	Path          string
	RetentionDays int
}

type ConversationConfig struct {
	MaxConversations int
	TTL              time.Duration
}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// WhatsApp gateway
	cfg.WhatsApp.GatewayURL = viper.GetString("whatsapp.gateway_url")
	cfg.WhatsApp.DefaultSession = viper.GetString("whatsapp.default_session")
	cfg.WhatsApp.StartDefaultSession = viper.GetBool("whatsapp.start_default_session")
	cfg.WhatsApp.Headless = viper.GetBool("whatsapp.headless")
	cfg.WhatsApp.ChromePath = viper.GetString("whatsapp.chrome_path")
	cfg.WhatsApp.WelcomeTo = viper.GetString("whatsapp.welcome_to")
	if gatewayURL := viper.GetString("wa_gateway_url"); gatewayURL != "" {
		cfg.WhatsApp.GatewayURL = gatewayURL
	}

	// Feature toggles
	cfg.Features.AutoReply = viper.GetBool("features.auto_reply")
	cfg.Features.WelcomeMessage = viper.GetBool("features.welcome_message")
	cfg.Features.IgnoreGroups = viper.GetBool("features.ignore_groups")
	cfg.Features.IgnoreStatus = viper.GetBool("features.ignore_status")
	cfg.Features.IgnoreNewsletters = viper.GetBool("features.ignore_newsletters")
	cfg.Features.AutoCleanupOnLogout = viper.GetBool("features.auto_cleanup_on_logout")
	cfg.Features.AIResponses = viper.GetBool("features.ai_responses")
	if aiResponses := viper.GetString("ai_responses"); aiResponses != "" {
		cfg.Features.AIResponses = aiResponses == "true"
	}

	// Groq AI
	cfg.Groq.APIKey = expandEnvVar(viper.GetString("groq.api_key"))
	cfg.Groq.Model = viper.GetString("groq.model")
	cfg.Groq.Temperature = viper.GetFloat64("groq.temperature")
	cfg.Groq.MaxTokens = viper.GetInt("groq.max_tokens")
	cfg.Groq.SystemPrompt = viper.GetString("groq.system_prompt")
	if groqKey := viper.GetString("groq_api_key"); groqKey != "" {
		cfg.Groq.APIKey = groqKey
	}

	// Storage
	cfg.Storage.Path = viper.GetString("storage.path")
	cfg.Storage.RetentionDays = viper.GetInt("storage.retention_days")

	// Conversation memory
	cfg.Conversation.MaxConversations = viper.GetInt("conversation.max_conversations")
	cfg.Conversation.TTL = viper.GetDuration("conversation.ttl")

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("whatsapp.gateway_url", "ws://localhost:3001")
	viper.SetDefault("whatsapp.default_session", "default")
	viper.SetDefault("whatsapp.start_default_session", true)
	viper.SetDefault("whatsapp.headless", true)

	viper.SetDefault("features.auto_reply", true)
	viper.SetDefault("features.welcome_message", false)
	viper.SetDefault("features.ignore_groups", true)
	viper.SetDefault("features.ignore_status", true)
	viper.SetDefault("features.ignore_newsletters", true)
	viper.SetDefault("features.auto_cleanup_on_logout", true)
	viper.SetDefault("features.ai_responses", true)

	viper.SetDefault("groq.model", "llama-3.3-70b-versatile")
	viper.SetDefault("groq.temperature", 0.7)
	viper.SetDefault("groq.max_tokens", 1024)
	viper.SetDefault("groq.system_prompt",
		"Você é um assistente virtual prestativo e amigável que responde mensagens de WhatsApp. "+
			"Seja conciso, educado e útil. Responda em português, a menos que o usuário escreva em outro idioma.")

	viper.SetDefault("storage.path", "./data/zapnode.db")
	viper.SetDefault("storage.retention_days", 0)

	viper.SetDefault("conversation.max_conversations", 1024)
	viper.SetDefault("conversation.ttl", "24h")
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}
