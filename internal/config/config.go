package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lazyjira/lazyjira/internal/app"
	"github.com/lazyjira/lazyjira/internal/jira"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envInstance = "LAZYJIRA_INSTANCE"
	envUser     = "LAZYJIRA_USER"
	envToken    = "LAZYJIRA_TOKEN"
	envProject  = "LAZYJIRA_PROJECT"
	envJQL      = "LAZYJIRA_JQL"
	envPageSize = "LAZYJIRA_PAGE_SIZE"
	envVerbose  = "LAZYJIRA_VERBOSE"
	envTrace    = "LAZYJIRA_TRACE"
	envLogFile  = "LAZYJIRA_LOG_FILE"

	// jira-cli conventions, honoured so one setup can serve both
	// tools.
	envJiraAPIToken   = "JIRA_API_TOKEN"
	envJiraConfigFile = "JIRA_CONFIG_FILE"
)

const defaultPageSize = 50

// Load parses configuration from CLI arguments, environment variables
// and the jira-cli config file, in that order of precedence.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("lazyjira", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	instance := fs.String("instance", envOrDefault(env, envInstance, ""), "Jira instance hostname, e.g. company.atlassian.net")
	user := fs.String("user", envOrDefault(env, envUser, ""), "Jira account email")
	token := fs.String("token", envOrDefault(env, envToken, envOrDefault(env, envJiraAPIToken, "")), "Jira API token")
	project := fs.String("project", envOrDefault(env, envProject, ""), "default project key for the issue list and new tickets")
	jql := fs.String("jql", envOrDefault(env, envJQL, ""), "JQL for the issue list (overrides the project default)")
	pageSize := fs.Int("page-size", envOrInt(env, envPageSize, defaultPageSize), "issues fetched per page")
	verbose := fs.Bool("verbose", envOrBool(env, envVerbose, false), "show informational messages in the status line")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: app.Config{
			Instance: *instance,
			Username: *user,
			Token:    *token,
			Project:  strings.ToUpper(*project),
			JQL:      *jql,
			PageSize: *pageSize,
			Verbose:  *verbose,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"instance": *instance,
			"user":     *user,
			"project":  *project,
			"jql":      *jql,
			"pageSize": strconv.Itoa(*pageSize),
			"verbose":  strconv.FormatBool(*verbose),
			"trace":    strconv.FormatBool(*trace),
			"logFile":  *logFile,
		},
		Args: append([]string(nil), args...),
	}

	applyFileFallback(&cfg, env)

	return cfg, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	if err := jira.ValidateInstance(cfg.App.Instance); err != nil {
		return err
	}
	if cfg.App.Username == "" {
		return fmt.Errorf("username is required (set --user or %s)", envUser)
	}
	if cfg.App.Token == "" {
		return fmt.Errorf("API token is required (set --token, %s or %s)", envToken, envJiraAPIToken)
	}
	if cfg.App.PageSize < 1 || cfg.App.PageSize > 100 {
		return fmt.Errorf("page-size must be between 1 and 100 (got %d)", cfg.App.PageSize)
	}
	return nil
}
