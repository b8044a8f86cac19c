package config

import (
	"context"

	"github.com/leofalp/chatgate/providers/ai"
)

// Credentials serves vendor profiles from the current settings. Reads go
// through Get, so a reloaded file takes effect on the next request.
type Credentials struct {
	config *Config[Settings]
}

// NewCredentials returns a credential source over config.
func NewCredentials(config *Config[Settings]) *Credentials {
	return &Credentials{config: config}
}

// Credentials returns the profile for vendor, or a MissingCredential error
// when no API key is configured.
func (c *Credentials) Credentials(_ context.Context, vendor ai.Vendor) (ai.ProviderConfig, error) {
	settings, ok := c.config.Get().Providers[string(vendor)]
	if !ok || settings.APIKey == "" {
		return ai.ProviderConfig{}, ai.MissingCredentialError(vendor)
	}
	return settings.ProviderConfig(vendor), nil
}
