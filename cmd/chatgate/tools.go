package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/providers/tool"
	"github.com/leofalp/chatgate/providers/tool/openapi"
)

func newToolsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage OpenAPI tools",
	}
	cmd.AddCommand(
		newToolsImportCommand(root),
		newToolsConvertCommand(),
		newToolsListCommand(root),
		newToolsDeleteCommand(root),
	)
	return cmd
}

func newToolsImportCommand(root *rootOptions) *cobra.Command {
	var name, description string
	var headers []string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate an OpenAPI document and store it as a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := openapi.Convert(document)
			if err != nil {
				return err
			}

			customHeaders, err := encodeHeaders(headers)
			if err != nil {
				return err
			}
			if name == "" {
				name = result.Info.Title
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if description == "" {
				description = result.Info.Description
			}

			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			record := &gateway.ToolRecord{
				Name:          name,
				Description:   description,
				Schema:        string(document),
				CustomHeaders: customHeaders,
			}
			if err := db.SaveTool(cmd.Context(), record); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d functions\n", record.ID, record.Name, len(result.Functions))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "tool name (defaults to info.title)")
	cmd.Flags().StringVar(&description, "description", "", "tool description (defaults to info.description)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "header sent with every call, as Name: value")
	return cmd
}

// encodeHeaders turns "Name: value" flags into the JSON object string stored
// on the tool record.
func encodeHeaders(headers []string) (string, error) {
	if len(headers) == 0 {
		return "", nil
	}
	values := make(map[string]string, len(headers))
	for _, header := range headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("invalid header %q, expected Name: value", header)
		}
		values[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	// Validate the stored form the dispatcher will parse.
	if _, err := tool.ParseHeaders(string(encoded)); err != nil {
		return "", err
	}
	return string(encoded), nil
}

func newToolsConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file>",
		Short: "Print the functions and routes generated from an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := openapi.Convert(document)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
}

func newToolsListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			tools, err := db.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("ID", "NAME", "CREATED")
			for _, record := range tools {
				table.AddRow(record.ID, record.Name, record.CreatedAt.Format("2006-01-02 15:04"))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}

func newToolsDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			return db.DeleteTool(cmd.Context(), args[0])
		},
	}
}
