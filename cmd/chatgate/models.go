package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/leofalp/chatgate/core/gateway"
)

func newModelsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage custom OpenAI-compatible models",
	}
	cmd.AddCommand(newModelsAddCommand(root), newModelsListCommand(root))
	return cmd
}

func newModelsAddCommand(root *rootOptions) *cobra.Command {
	var model gateway.CustomModel
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a custom model for the custom route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SaveCustomModel(cmd.Context(), &model); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), model.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&model.Name, "name", "", "display name")
	cmd.Flags().StringVar(&model.ModelID, "model-id", "", "model id sent upstream")
	cmd.Flags().StringVar(&model.BaseURL, "base-url", "", "OpenAI-compatible base URL")
	cmd.Flags().StringVar(&model.APIKey, "api-key", "", "API key, if the endpoint needs one")
	cmd.Flags().IntVar(&model.ContextLength, "context-length", 0, "context window in tokens")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("model-id")
	_ = cmd.MarkFlagRequired("base-url")
	return cmd
}

func newModelsListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			models, err := db.ListCustomModels(cmd.Context())
			if err != nil {
				return err
			}
			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("ID", "NAME", "MODEL", "BASE URL")
			for _, model := range models {
				table.AddRow(model.ID, model.Name, model.ModelID, model.BaseURL)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}
