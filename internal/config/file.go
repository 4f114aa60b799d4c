package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// jiraCLIConfigPath locates the jira-cli config file so existing
// setups work without re-entering the instance and login.
func jiraCLIConfigPath(env map[string]string) string {
	if path, ok := env[envJiraConfigFile]; ok && path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", ".jira", ".config.yml")
}

// applyFileFallback fills unset fields from the jira-cli config file.
// Flags and environment always win; a missing or unreadable file is
// not an error.
func applyFileFallback(cfg *Config, env map[string]string) {
	path := jiraCLIConfigPath(env)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return
	}

	if cfg.App.Instance == "" {
		cfg.App.Instance = hostFromServerURL(v.GetString("server"))
	}
	if cfg.App.Username == "" {
		cfg.App.Username = v.GetString("login")
	}
	if cfg.App.Project == "" {
		cfg.App.Project = strings.ToUpper(v.GetString("project.key"))
	}
}

// hostFromServerURL strips the scheme jira-cli stores in its server
// field, leaving the bare hostname the client expects.
func hostFromServerURL(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return ""
	}
	if idx := strings.Index(server, "://"); idx >= 0 {
		server = server[idx+3:]
	}
	return strings.TrimSuffix(strings.SplitN(server, "/", 2)[0], "/")
}
