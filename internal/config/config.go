package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	UpstreamURL    string `mapstructure:"upstream_url"`
	PatchFile      string `mapstructure:"patch_file"`
	AutomationDir  string `mapstructure:"automation_dir"`
	CommitterName  string `mapstructure:"committer_name"`
	CommitterEmail string `mapstructure:"committer_email"`
	TagPrefix      string `mapstructure:"tag_prefix"`
	ReservedPrefix string `mapstructure:"reserved_prefix"`
	GithubToken    string `mapstructure:"github_token"`
	JournalDir     string `mapstructure:"journal_dir"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		PatchFile:      "fork.patch",
		AutomationDir:  ".github",
		CommitterName:  "forkline-bot",
		CommitterEmail: "forkline-bot@users.noreply.github.com",
		TagPrefix:      "v",
		ReservedPrefix: "patched-",
		JournalDir:     ".forkline-state",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url cannot be empty")
	}
	if c.PatchFile == "" {
		return fmt.Errorf("patch_file cannot be empty")
	}
	for name, dir := range map[string]string{
		"patch_file":     c.PatchFile,
		"automation_dir": c.AutomationDir,
		"journal_dir":    c.JournalDir,
	} {
		if strings.Contains(dir, "..") {
			return fmt.Errorf("%s contains invalid path traversal", name)
		}
	}
	if c.CommitterName == "" || c.CommitterEmail == "" {
		return fmt.Errorf("committer_name and committer_email cannot be empty")
	}
	if c.TagPrefix == "" {
		return fmt.Errorf("tag_prefix cannot be empty")
	}
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	return nil
}

// ValidateGitHubToken validates GitHub token format (exported for reuse).
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse).
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// ParseRepoSlug extracts the owner and repository name from a remote URL.
// Supports https, ssh and plain owner/repo forms.
func ParseRepoSlug(url string) (owner, repo string, err error) {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	s = strings.TrimSuffix(s, "/")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.Index(s, ":"); i >= 0 && !strings.Contains(s[:i], "/") {
		// ssh form: git@host:owner/repo
		s = s[i+1:]
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse owner/repo from url: %s", url)
	}
	owner = parts[len(parts)-2]
	repo = parts[len(parts)-1]
	if err := ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return "", "", fmt.Errorf("cannot parse owner/repo from url %s: %w", url, err)
	}
	return owner, repo, nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".forkline")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Configure environment variables
	viper.SetEnvPrefix("FORKLINE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Explicitly bind environment variables
	// BindEnv allows multiple env vars - it will check them in order
	binds := map[string][]string{
		"upstream_url":    {"UPSTREAM_URL", "FORKLINE_UPSTREAM_URL"},
		"patch_file":      {"PATCH_FILE", "FORKLINE_PATCH_FILE"},
		"automation_dir":  {"AUTOMATION_DIR", "FORKLINE_AUTOMATION_DIR"},
		"committer_name":  {"COMMITTER_NAME", "FORKLINE_COMMITTER_NAME"},
		"committer_email": {"COMMITTER_EMAIL", "FORKLINE_COMMITTER_EMAIL"},
		"github_token":    {"GITHUB_TOKEN", "FORKLINE_GITHUB_TOKEN"},
		"journal_dir":     {"JOURNAL_DIR", "FORKLINE_JOURNAL_DIR"},
	}
	for key, envs := range binds {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("patch_file", defaults.PatchFile)
	viper.SetDefault("automation_dir", defaults.AutomationDir)
	viper.SetDefault("committer_name", defaults.CommitterName)
	viper.SetDefault("committer_email", defaults.CommitterEmail)
	viper.SetDefault("tag_prefix", defaults.TagPrefix)
	viper.SetDefault("reserved_prefix", defaults.ReservedPrefix)
	viper.SetDefault("journal_dir", defaults.JournalDir)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
