package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const petsDocument = `openapi: 3.0.0
info:
  title: Pets
  description: Pet registry
servers:
  - url: https://pets.example.com
paths:
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          schema:
            type: string
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := root.Execute()
	return out.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petsDocument), 0o600))
	return path
}

// TestToolsConvert verifies convert prints functions and routes as JSON.
func TestToolsConvert(t *testing.T) {
	out, err := execute(t, "tools", "convert", writeDocument(t))
	require.NoError(t, err)

	var result struct {
		Routes []struct {
			Path        string `json:"path"`
			OperationID string `json:"operationId"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Routes, 1)
	require.Equal(t, "/pets/:id", result.Routes[0].Path)
	require.Equal(t, "getPet", result.Routes[0].OperationID)
}

// TestToolsImportAndList verifies an imported document is listed from the
// configured store.
func TestToolsImportAndList(t *testing.T) {
	t.Setenv("CHATGATE_STORE_PATH", filepath.Join(t.TempDir(), "chatgate.db"))

	out, err := execute(t, "tools", "import", writeDocument(t), "-H", "X-Api-Key: secret")
	require.NoError(t, err)
	require.Contains(t, out, "Pets")
	require.Contains(t, out, "1 functions")

	out, err = execute(t, "tools", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "Pets")
}

// TestToolsImportRejectsInvalid verifies unconvertible documents are not stored.
func TestToolsImportRejectsInvalid(t *testing.T) {
	t.Setenv("CHATGATE_STORE_PATH", filepath.Join(t.TempDir(), "chatgate.db"))
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openapi":"3.0.0","paths":{}}`), 0o600))

	_, err := execute(t, "tools", "import", path)
	require.Error(t, err)
}

// TestEncodeHeaders verifies header flags become a JSON object.
func TestEncodeHeaders(t *testing.T) {
	encoded, err := encodeHeaders([]string{"X-Api-Key: secret", "Accept:application/json"})
	require.NoError(t, err)
	require.JSONEq(t, `{"X-Api-Key":"secret","Accept":"application/json"}`, encoded)

	_, err = encodeHeaders([]string{"no separator"})
	require.Error(t, err)

	encoded, err = encodeHeaders(nil)
	require.NoError(t, err)
	require.Empty(t, encoded)
}

// TestModelsAddAndList verifies custom models are stored and listed.
func TestModelsAddAndList(t *testing.T) {
	t.Setenv("CHATGATE_STORE_PATH", filepath.Join(t.TempDir(), "chatgate.db"))

	_, err := execute(t, "models", "add", "--name", "local", "--model-id", "llama3.1", "--base-url", "http://localhost:11434/v1")
	require.NoError(t, err)

	out, err := execute(t, "models", "list")
	require.NoError(t, err)
	require.Contains(t, out, "llama3.1")
}

// TestVersion verifies the JSON version output.
func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, gitVersion, info.GitVersion)
	require.NotEmpty(t, info.GoVersion)
}

// TestVersionText verifies the text output right-aligns the labels.
func TestVersionText(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	require.True(t, strings.HasPrefix(lines[0], "gitVersion: "+gitVersion))
	require.True(t, strings.HasPrefix(lines[len(lines)-1], "  platform: "), "got %q", lines[len(lines)-1])
}
