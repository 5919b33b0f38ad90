package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/sonata-project/devkit/internal/models"
)

const (
	// EnvGithubToken is the environment variable name for the GitHub API token
	EnvGithubToken = "DEVKIT_GITHUB_TOKEN"
	// EnvBotLogin overrides the account the bot comments as
	EnvBotLogin = "DEVKIT_BOT_LOGIN"

	DefaultBotLogin       = "SonataCI"
	DefaultDatabasePath   = "devkit.db"
	DefaultRequestTimeout = "30s"
)

// ProjectConfig is one monitored project
type ProjectConfig struct {
	// Display name, defaults to the repository name
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Repository in the format "owner/name"
	Repository string `json:"repository" toml:"repository"`
}

// Config represents the application configuration
type Config struct {
	// GitHub API token for authentication (optional, can be set via DEVKIT_GITHUB_TOKEN env var)
	GitHubToken string `json:"github_token" toml:"github_token"`

	// REST API root for GitHub Enterprise, empty for github.com
	APIURL string `json:"api_url,omitempty" toml:"api_url,omitempty"`

	// GraphQL endpoint for GitHub Enterprise, empty for github.com
	GraphQLURL string `json:"graphql_url,omitempty" toml:"graphql_url,omitempty"`

	// Login of the account the bot comments as
	BotLogin string `json:"bot_login" toml:"bot_login"`

	// Path to the SQLite run history database
	DatabasePath string `json:"database_path" toml:"database_path"`

	// Timeout of a single API call, as a Go duration
	RequestTimeout string `json:"request_timeout" toml:"request_timeout"`

	// List open pull requests through the GraphQL API
	UseGraphQL bool `json:"use_graphql" toml:"use_graphql"`

	Projects []ProjectConfig `json:"projects" toml:"projects"`
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads the configuration from a JSON or TOML file
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	config, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}

	// Check for overrides in environment variables
	if envToken := os.Getenv(EnvGithubToken); envToken != "" {
		config.GitHubToken = envToken
	}
	if envLogin := os.Getenv(EnvBotLogin); envLogin != "" {
		config.BotLogin = envLogin
	}

	if config.BotLogin == "" {
		config.BotLogin = DefaultBotLogin
	}
	if config.RequestTimeout == "" {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if _, err := config.Timeout(); err != nil {
		return nil, err
	}

	// Set default database path if not specified
	if config.DatabasePath == "" {
		config.DatabasePath = DefaultDatabasePath
	}

	// Make database path absolute if it's relative
	if !filepath.IsAbs(config.DatabasePath) {
		configDir := filepath.Dir(path)
		config.DatabasePath = filepath.Join(configDir, config.DatabasePath)
	}

	return config, nil
}

// ReadConfig parses a configuration file as written, without environment
// overrides or defaults. Use it when the file is going to be saved back.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// loadDotEnv exports variables from a .env file without overriding the environment
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Timeout returns the per-call API timeout
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid request_timeout %q: must not be negative", c.RequestTimeout)
	}
	return d, nil
}

// Registry returns the configured projects
func (c *Config) Registry() ([]models.Project, error) {
	projects := make([]models.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		repo, err := models.ParseRepository(p.Repository)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", p.Name, err)
		}

		name := p.Name
		if name == "" {
			name = repo.Name
		}
		projects = append(projects, models.Project{Name: name, Repository: repo})
	}
	return projects, nil
}

// AddProject appends a project unless its repository is already configured
func (c *Config) AddProject(name, repository string) (bool, error) {
	if _, err := models.ParseRepository(repository); err != nil {
		return false, err
	}

	for _, p := range c.Projects {
		if strings.EqualFold(p.Repository, repository) {
			return false, nil
		}
	}

	c.Projects = append(c.Projects, ProjectConfig{Name: name, Repository: repository})
	return true, nil
}

// SaveConfig saves the configuration to a JSON or TOML file
func SaveConfig(config *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(config)
		data = buf.Bytes()
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a default configuration file if it doesn't exist
func CreateDefaultConfig(path string) error {
	// Check if the file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, don't overwrite
	}

	config := &Config{
		BotLogin:       DefaultBotLogin,
		DatabasePath:   DefaultDatabasePath,
		RequestTimeout: DefaultRequestTimeout,
		Projects: []ProjectConfig{
			{Name: "SonataAdminBundle", Repository: "sonata-project/SonataAdminBundle"},
		},
	}

	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return SaveConfig(config, path)
}
