package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel-api/internal/client"
	"github.com/sentinelhq/sentinel-api/internal/store"
)

const (
	envServer     = "SENTINEL_SERVER"
	envToken      = "SENTINEL_TOKEN"
	defaultServer = "http://localhost:8080"
)

// serverURL resolves the API base URL from the flag, the environment, or the
// default, in that order
func serverURL(cmd *cobra.Command) string {
	if flag, _ := cmd.Flags().GetString("server"); flag != "" {
		return strings.TrimRight(flag, "/")
	}
	if env := os.Getenv(envServer); env != "" {
		return strings.TrimRight(env, "/")
	}
	return defaultServer
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sentinel", "token"), nil
}

// loadToken reads the saved session token. $SENTINEL_TOKEN wins over the
// token file.
func loadToken() string {
	if env := os.Getenv(envToken); env != "" {
		return env
	}
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func clearToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// newClient builds an API client carrying the saved session token
func newClient(cmd *cobra.Command) *client.Client {
	return client.New(serverURL(cmd), client.WithToken(loadToken()))
}

// newStore builds a task store over the API. Callers fetch before mutating.
func newStore(c *client.Client) *store.TaskStore {
	return store.NewTaskStore(client.NewHTTPRepository(c), zap.NewNop())
}
