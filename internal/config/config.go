// Package config handles configuration loading for taskfan.
// It supports XDG config paths, project-level overrides, and environment
// variables. Configuration is read once per invocation; there is no
// runtime reconfiguration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for taskfan.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Review    ReviewConfig    `mapstructure:"review"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
}

// StoreConfig locates the external task store.
type StoreConfig struct {
	// Bin is the task-master CLI binary.
	Bin string `mapstructure:"bin"`
	// File is the store's tasks JSON file.
	File string `mapstructure:"file"`
	// StateFile is the store's state file, used for tag detection.
	StateFile string `mapstructure:"state_file"`
	// Tag pins the store namespace. Empty means auto-detect.
	Tag string `mapstructure:"tag"`
}

// WorkspaceConfig controls workspace derivation.
type WorkspaceConfig struct {
	// Base is the directory worktrees are created under.
	Base string `mapstructure:"base"`
	// BranchPrefix is prepended to every workspace branch name.
	BranchPrefix string `mapstructure:"branch_prefix"`
}

// PromptConfig controls prompt output.
type PromptConfig struct {
	// Dir is where per-task prompt files are written.
	Dir string `mapstructure:"dir"`
}

// ReviewConfig controls review request output.
type ReviewConfig struct {
	// Dir is where per-task review documents are written.
	Dir string `mapstructure:"dir"`
}

// DispatchConfig controls external agent launches.
type DispatchConfig struct {
	// Auto launches the agent per workspace during kickoff.
	Auto bool `mapstructure:"auto"`
	// Command is the agent CLI binary.
	Command string `mapstructure:"command"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
//  1. Environment variables (TASKFAN_* plus the legacy TM_BIN, TM_FILE,
//     TAG, WORKTREE_BASE, BRANCH_PREFIX, PROMPT_DIR names)
//  2. Project config (.taskfan.yaml in the current directory or a parent)
//  3. User config (~/.config/taskfan/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TASKFAN")

	// Legacy environment names kept from the shell tooling this replaces.
	v.BindEnv("store.bin", "TASKFAN_STORE_BIN", "TM_BIN")
	v.BindEnv("store.file", "TASKFAN_STORE_FILE", "TM_FILE")
	v.BindEnv("store.tag", "TASKFAN_STORE_TAG", "TAG")
	v.BindEnv("workspace.base", "TASKFAN_WORKSPACE_BASE", "WORKTREE_BASE")
	v.BindEnv("workspace.branch_prefix", "TASKFAN_WORKSPACE_BRANCH_PREFIX", "BRANCH_PREFIX")
	v.BindEnv("prompt.dir", "TASKFAN_PROMPT_DIR", "PROMPT_DIR")
	v.BindEnv("dispatch.auto", "TASKFAN_DISPATCH_AUTO")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.bin", "task-master")
	v.SetDefault("store.file", ".taskmaster/tasks/tasks.json")
	v.SetDefault("store.state_file", ".taskmaster/state.json")
	v.SetDefault("store.tag", "")

	v.SetDefault("workspace.base", "../ws")
	v.SetDefault("workspace.branch_prefix", "ws/")

	v.SetDefault("prompt.dir", "prompts")
	v.SetDefault("review.dir", "reviews")

	v.SetDefault("dispatch.auto", false)
	v.SetDefault("dispatch.command", "claude")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Bin:       "task-master",
			File:      ".taskmaster/tasks/tasks.json",
			StateFile: ".taskmaster/state.json",
		},
		Workspace: WorkspaceConfig{
			Base:         "../ws",
			BranchPrefix: "ws/",
		},
		Prompt:   PromptConfig{Dir: "prompts"},
		Review:   ReviewConfig{Dir: "reviews"},
		Dispatch: DispatchConfig{Auto: false, Command: "claude"},
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// getUserConfigDir returns the XDG config directory for taskfan.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskfan")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskfan")
	}
	return filepath.Join(home, ".config", "taskfan")
}

// findProjectConfig searches for .taskfan.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".taskfan.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
