// Command chatgate serves the chat gateway and manages its tool and custom
// model registry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatgate/internal/config"
	"github.com/leofalp/chatgate/internal/store"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "chatgate",
		Short:        "Multi-provider chat-completion gateway",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv(opts.envFile)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newServeCommand(opts),
		newToolsCommand(opts),
		newModelsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// loadSettings reads the config without watching it.
func (o *rootOptions) loadSettings() (config.Settings, error) {
	cfg, err := config.Load[config.Settings](o.configFile, settingsOptions()...)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.Get(), nil
}

func settingsOptions() []config.Option[config.Settings] {
	return []config.Option[config.Settings]{
		config.WithoutWatch[config.Settings](),
		config.WithDefaults[config.Settings](config.Defaults()),
		config.WithEnv[config.Settings](config.EnvPrefix),
	}
}

func (o *rootOptions) openStore() (*store.DB, error) {
	settings, err := o.loadSettings()
	if err != nil {
		return nil, err
	}
	return store.Open(settings.Store.Path)
}
