package config

import (
	"strings"
	"time"

	"github.com/leofalp/chatgate/providers/ai"
)

// EnvPrefix prefixes every environment variable read by chatgate.
const EnvPrefix = "CHATGATE"

// Settings is the chatgate configuration.
type Settings struct {
	Server    ServerSettings              `mapstructure:"server" json:"server"`
	Tools     ToolSettings                `mapstructure:"tools" json:"tools"`
	Log       LogSettings                 `mapstructure:"log" json:"log"`
	Store     StoreSettings               `mapstructure:"store" json:"store"`
	Providers map[string]ProviderSettings `mapstructure:"providers" json:"providers"`
}

type ServerSettings struct {
	Addr              string        `mapstructure:"addr" json:"addr"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" json:"read_header_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" json:"max_body_bytes"`
}

type ToolSettings struct {
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout"`
	Parallel      bool          `mapstructure:"parallel" json:"parallel"`
	ParallelLimit int           `mapstructure:"parallel_limit" json:"parallel_limit"`
}

type LogSettings struct {
	Level      string `mapstructure:"level" json:"level"`
	Format     string `mapstructure:"format" json:"format"`
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

type StoreSettings struct {
	Path string `mapstructure:"path" json:"path"`
}

// ProviderSettings is one providers.<vendor> block. Unlike ai.ProviderConfig
// it keeps the key in its JSON form so Get copies it.
type ProviderSettings struct {
	APIKey       string            `mapstructure:"api_key" json:"api_key"`
	BaseURL      string            `mapstructure:"base_url" json:"base_url,omitempty"`
	Organization string            `mapstructure:"organization" json:"organization,omitempty"`
	APIVersion   string            `mapstructure:"api_version" json:"api_version,omitempty"`
	Deployments  map[string]string `mapstructure:"deployments" json:"deployments,omitempty"`
}

// ProviderConfig converts the block for vendor.
func (p ProviderSettings) ProviderConfig(vendor ai.Vendor) ai.ProviderConfig {
	return ai.ProviderConfig{
		Vendor:       vendor,
		APIKey:       p.APIKey,
		BaseURL:      p.BaseURL,
		Organization: p.Organization,
		APIVersion:   p.APIVersion,
		Deployments:  p.Deployments,
	}
}

// Defaults are applied before the file and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":                ":8080",
		"server.request_timeout":     "5m",
		"server.read_header_timeout": "10s",
		"server.max_body_bytes":      int64(10 << 20),
		"tools.timeout":              "30s",
		"tools.parallel":             false,
		"tools.parallel_limit":       4,
		"log.level":                  "info",
		"log.format":                 "compact",
		"log.max_size_mb":            100,
		"log.max_backups":            3,
		"log.max_age_days":           28,
		"store.path":                 "chatgate.db",
	}
}

// vendorEnv lists the conventional variables accepted besides
// CHATGATE_PROVIDERS_<VENDOR>_<FIELD>.
var vendorEnv = map[ai.Vendor]map[string]string{
	ai.VendorOpenAI:     {"api_key": "OPENAI_API_KEY", "organization": "OPENAI_ORGANIZATION_ID"},
	ai.VendorAzure:      {"api_key": "AZURE_OPENAI_API_KEY", "base_url": "AZURE_OPENAI_ENDPOINT", "api_version": "AZURE_OPENAI_API_VERSION"},
	ai.VendorAnthropic:  {"api_key": "ANTHROPIC_API_KEY"},
	ai.VendorMistral:    {"api_key": "MISTRAL_API_KEY"},
	ai.VendorLlama:      {"api_key": "LLAMA_API_KEY", "base_url": "LLAMA_BASE_URL"},
	ai.VendorPerplexity: {"api_key": "PERPLEXITY_API_KEY"},
	ai.VendorOpenRouter: {"api_key": "OPENROUTER_API_KEY"},
}

var providerFields = []string{"api_key", "base_url", "organization", "api_version"}

// LoadSettings reads chatgate settings from path (optional) and the environment.
// Every providers.<vendor> field is bound to its CHATGATE_ variable so it is
// picked up even when no file mentions the vendor.
func LoadSettings(path string) (*Config[Settings], error) {
	opts := []Option[Settings]{
		WithDefaults[Settings](Defaults()),
		WithEnv[Settings](EnvPrefix),
		WithEnvAliases[Settings]("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"),
	}
	for _, vendor := range ai.Vendors() {
		if vendor == ai.VendorCustom {
			continue
		}
		for _, field := range providerFields {
			key := "providers." + string(vendor) + "." + field
			names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
			if alias, ok := vendorEnv[vendor][field]; ok {
				names = append(names, alias)
			}
			opts = append(opts, WithEnvAliases[Settings](key, names...))
		}
	}
	return Load[Settings](path, opts...)
}
