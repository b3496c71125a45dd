package github

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LoadToken resolves the GitHub access token for API calls.
//
// The easiest thing to do is to set the GITHUB_AUTH environment variable
// to a personal access token. Alternatively, the token can live in a JSON
// file at ~/.github.json keyed on "login_or_token". An empty result means
// anonymous access.
func LoadToken() (string, error) {
	v := viper.New()
	if err := v.BindEnv("auth", "GITHUB_AUTH"); err != nil {
		return "", fmt.Errorf("failed to bind GITHUB_AUTH: %w", err)
	}
	if token := v.GetString("auth"); token != "" {
		return token, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	credsPath := filepath.Join(home, ".github.json")
	if _, err := os.Stat(credsPath); err != nil {
		return "", nil
	}
	v.SetConfigFile(credsPath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", credsPath, err)
	}
	return v.GetString("login_or_token"), nil
}
