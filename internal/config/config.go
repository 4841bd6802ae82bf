package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceDirName is the directory name for project-level config.
	WorkspaceDirName = ".homebox-voice"
	// WorkspaceConfigFile is the config file name inside the workspace directory.
	WorkspaceConfigFile = "config.yaml"
	// MaxSearchDepth limits how many parent directories to walk when discovering a workspace.
	MaxSearchDepth = 10
)

// WorkspaceOptions controls workspace discovery behavior.
type WorkspaceOptions struct {
	// Disable skips workspace discovery entirely (--no-workspace flag).
	Disable bool
	// ExplicitDir uses this directory as workspace root instead of walking up (--workspace-dir flag).
	ExplicitDir string
}

// Config captures all tunable settings for the Homebox voice MCP server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Homebox  HomeboxConfig  `yaml:"homebox"`
	Resolver ResolverConfig `yaml:"resolver"`
	MCP      MCPConfig      `yaml:"mcp"`
	Facts    FactsConfig    `yaml:"facts"`
	Recorder RecorderConfig `yaml:"recorder"`
	Display  DisplayConfig  `yaml:"display"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
	// debug | info | warn | error
	LogLevel string `yaml:"log_level"`
}

// HomeboxConfig points at the inventory backend.
type HomeboxConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Per-request timeout (e.g., "10s").
	RequestTimeout string `yaml:"request_timeout"`
}

// ResolverConfig tunes location path resolution.
type ResolverConfig struct {
	// When true, paths are resolved only below the session's current location.
	ScopeToCurrentLocation bool `yaml:"scope_to_current_location"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// FactsConfig controls the Mangle mirror of the event log.
type FactsConfig struct {
	Enable          bool   `yaml:"enable"`
	// Empty uses the schema built into the binary.
	SchemaPath      string `yaml:"schema_path"`
	FactBufferLimit int    `yaml:"fact_buffer_limit"`
}

// RecorderConfig controls the JSONL trace of tool calls.
type RecorderConfig struct {
	Enable bool   `yaml:"enable"`
	Dir    string `yaml:"dir"`
}

// DisplayConfig controls the read-only HTTP API.
type DisplayConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:     "homebox-voice-mcp",
			Version:  "0.1.0",
			LogFile:  "homebox-voice-mcp.log",
			LogLevel: "info",
		},
		Homebox: HomeboxConfig{
			BaseURL:        "http://localhost:7745",
			RequestTimeout: "10s",
		},
		Resolver: ResolverConfig{
			ScopeToCurrentLocation: false,
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
		Facts: FactsConfig{
			Enable:          true,
			FactBufferLimit: 4096,
		},
		Recorder: RecorderConfig{
			Enable: false,
			Dir:    "data/traces",
		},
		Display: DisplayConfig{
			Enable: false,
			Addr:   "127.0.0.1:8089",
		},
	}
}

// Load reads YAML config from disk, overlays defaults and applies env overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, cfg.Validate()
}

// ApplyEnvOverrides lets credentials live outside the config file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HOMEBOX_BASE_URL"); v != "" {
		c.Homebox.BaseURL = v
	}
	if v := os.Getenv("HOMEBOX_USERNAME"); v != "" {
		c.Homebox.Username = v
	}
	if v := os.Getenv("HOMEBOX_PASSWORD"); v != "" {
		c.Homebox.Password = v
	}
	if v := os.Getenv("HOMEBOX_VOICE_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// DiscoverWorkspace walks up from startDir looking for a .homebox-voice/config.yaml file.
// Returns the workspace root directory (parent of .homebox-voice/) or empty string if not found.
func DiscoverWorkspace(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for i := 0; i < MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, WorkspaceDirName, WorkspaceConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// LoadWithWorkspace implements multi-layer config merge:
//
//	DefaultConfig() <- .homebox-voice/config.yaml <- explicit --config <- environment
//
// Returns the merged config and the workspace directory (empty if none found).
func LoadWithWorkspace(explicitConfig string, opts WorkspaceOptions) (Config, string, error) {
	cfg := DefaultConfig()
	wsDir := ""

	if !opts.Disable {
		var err error
		if opts.ExplicitDir != "" {
			candidate := filepath.Join(opts.ExplicitDir, WorkspaceDirName, WorkspaceConfigFile)
			if _, statErr := os.Stat(candidate); statErr == nil {
				wsDir = opts.ExplicitDir
			}
		} else {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return cfg, "", fmt.Errorf("getting working directory: %w", cwdErr)
			}
			wsDir, err = DiscoverWorkspace(cwd)
			if err != nil {
				return cfg, "", fmt.Errorf("discovering workspace: %w", err)
			}
		}

		if wsDir != "" {
			wsConfigPath := filepath.Join(wsDir, WorkspaceDirName, WorkspaceConfigFile)
			raw, err := os.ReadFile(wsConfigPath)
			if err != nil {
				return cfg, "", fmt.Errorf("reading workspace config %s: %w", wsConfigPath, err)
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, "", fmt.Errorf("parsing workspace config %s: %w", wsConfigPath, err)
			}
			cfg = resolveWorkspacePaths(cfg, wsDir)
		}
	}

	if explicitConfig != "" {
		raw, err := os.ReadFile(explicitConfig)
		if err != nil {
			return cfg, wsDir, fmt.Errorf("reading explicit config %s: %w", explicitConfig, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, wsDir, fmt.Errorf("parsing explicit config %s: %w", explicitConfig, err)
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, wsDir, cfg.Validate()
}

// InitWorkspace creates a .homebox-voice/ directory with a template config at root.
func InitWorkspace(root string) error {
	wsDir := filepath.Join(root, WorkspaceDirName)

	if _, err := os.Stat(wsDir); err == nil {
		return fmt.Errorf("workspace directory already exists: %s", wsDir)
	}

	dirs := []string{
		wsDir,
		filepath.Join(wsDir, "data"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	templateConfig := `# Homebox voice project-level configuration
# Values here override defaults but are overridden by --config and environment.
# Credentials are better kept in HOMEBOX_USERNAME / HOMEBOX_PASSWORD.

# homebox:
#   base_url: "http://homebox.local:7745"
#   request_timeout: "10s"

# resolver:
#   scope_to_current_location: false

# recorder:
#   enable: true
#   dir: "data/traces"

# display:
#   enable: true
#   addr: "127.0.0.1:8089"
`
	configPath := filepath.Join(wsDir, WorkspaceConfigFile)
	if err := os.WriteFile(configPath, []byte(templateConfig), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	gitignoreContent := "# Runtime data (traces) - do not version control\ndata/\n"
	gitignorePath := filepath.Join(wsDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}

// resolveWorkspacePaths resolves relative paths in the config against the workspace directory.
func resolveWorkspacePaths(cfg Config, wsDir string) Config {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wsDir, p)
	}

	cfg.Server.LogFile = resolve(cfg.Server.LogFile)
	cfg.Recorder.Dir = resolve(cfg.Recorder.Dir)
	cfg.Facts.SchemaPath = resolve(cfg.Facts.SchemaPath)
	return cfg
}

// Validate ensures required fields exist so the server can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Homebox.BaseURL == "" {
		return errors.New("homebox.base_url is required")
	}
	u, err := url.Parse(c.Homebox.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("homebox.base_url must be an http(s) URL, got %q", c.Homebox.BaseURL)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel)
	}
	if c.Display.Enable && c.Display.Addr == "" {
		return errors.New("display.addr is required when display is enabled")
	}
	return nil
}

// HasCredentials reports whether both username and password are configured.
func (h HomeboxConfig) HasCredentials() bool {
	return h.Username != "" && h.Password != ""
}

// Timeout returns the parsed request timeout with a sane default.
func (h HomeboxConfig) Timeout() time.Duration {
	if h.RequestTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(h.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetFactBufferLimit returns the fact buffer size with a sane default.
func (f FactsConfig) GetFactBufferLimit() int {
	if f.FactBufferLimit <= 0 {
		return 4096
	}
	return f.FactBufferLimit
}
