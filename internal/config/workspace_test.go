package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeWorkspaceConfig(t *testing.T, root, content string) {
	t.Helper()
	wsDir := filepath.Join(root, WorkspaceDirName)
	if err := os.MkdirAll(wsDir, 0755); err != nil {
		t.Fatalf("failed to create workspace dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(wsDir, WorkspaceConfigFile), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write workspace config: %v", err)
	}
}

func TestDiscoverWorkspace_Found(t *testing.T) {
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, "server:\n  name: test\n")

	result, err := DiscoverWorkspace(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != tmpDir {
		t.Errorf("expected %q, got %q", tmpDir, result)
	}
}

func TestDiscoverWorkspace_WalkUp(t *testing.T) {
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, "server:\n  name: test\n")

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	result, err := DiscoverWorkspace(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != tmpDir {
		t.Errorf("expected %q, got %q", tmpDir, result)
	}
}

func TestDiscoverWorkspace_NotFound(t *testing.T) {
	result, err := DiscoverWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestDiscoverWorkspace_MaxDepth(t *testing.T) {
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, "server:\n  name: test\n")

	parts := make([]string, MaxSearchDepth+2)
	parts[0] = tmpDir
	for i := 1; i <= MaxSearchDepth+1; i++ {
		parts[i] = "d"
	}
	deepPath := filepath.Join(parts...)
	if err := os.MkdirAll(deepPath, 0755); err != nil {
		t.Fatalf("failed to create deep path: %v", err)
	}

	result, err := DiscoverWorkspace(deepPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string (beyond max depth), got %q", result)
	}
}

func TestLoadWithWorkspace_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	cfg, wsDir, err := LoadWithWorkspace("", WorkspaceOptions{Disable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wsDir != "" {
		t.Errorf("expected empty workspace dir, got %q", wsDir)
	}
	if cfg.Server.Name != "homebox-voice-mcp" {
		t.Errorf("expected default server name, got %q", cfg.Server.Name)
	}
	if cfg.Display.Enable {
		t.Error("expected Display.Enable to be false by default")
	}
}

func TestLoadWithWorkspace_WorkspaceOverridesDefaults(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, `
homebox:
  base_url: "http://nas.local:7745"

resolver:
  scope_to_current_location: true
`)

	cfg, resultDir, err := LoadWithWorkspace("", WorkspaceOptions{ExplicitDir: tmpDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resultDir != tmpDir {
		t.Errorf("expected workspace dir %q, got %q", tmpDir, resultDir)
	}
	if cfg.Homebox.BaseURL != "http://nas.local:7745" {
		t.Errorf("expected base url from workspace, got %q", cfg.Homebox.BaseURL)
	}
	if !cfg.Resolver.ScopeToCurrentLocation {
		t.Error("expected ScopeToCurrentLocation from workspace config")
	}
	if cfg.Server.Name != "homebox-voice-mcp" {
		t.Errorf("expected default server name, got %q", cfg.Server.Name)
	}
}

func TestLoadWithWorkspace_ExplicitOverridesWorkspace(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, `
homebox:
  base_url: "http://workspace:7745"
`)

	explicitPath := filepath.Join(tmpDir, "explicit.yaml")
	if err := os.WriteFile(explicitPath, []byte("homebox:\n  base_url: \"http://explicit:7745\"\n"), 0644); err != nil {
		t.Fatalf("failed to write explicit config: %v", err)
	}

	cfg, _, err := LoadWithWorkspace(explicitPath, WorkspaceOptions{ExplicitDir: tmpDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Homebox.BaseURL != "http://explicit:7745" {
		t.Errorf("expected explicit base url to override workspace, got %q", cfg.Homebox.BaseURL)
	}
}

func TestLoadWithWorkspace_EnvOverridesEverything(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOMEBOX_BASE_URL", "http://env:7745")
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, "homebox:\n  base_url: \"http://workspace:7745\"\n")

	cfg, _, err := LoadWithWorkspace("", WorkspaceOptions{ExplicitDir: tmpDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Homebox.BaseURL != "http://env:7745" {
		t.Errorf("expected env base url, got %q", cfg.Homebox.BaseURL)
	}
}

func TestLoadWithWorkspace_Disabled(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeWorkspaceConfig(t, tmpDir, "display:\n  enable: true\n")

	cfg, resultDir, err := LoadWithWorkspace("", WorkspaceOptions{Disable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resultDir != "" {
		t.Errorf("expected empty workspace dir with Disable, got %q", resultDir)
	}
	if cfg.Display.Enable {
		t.Error("expected Display.Enable to be false when workspace disabled")
	}
}

func TestResolveWorkspacePaths_Relative(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Config{
		Server:   ServerConfig{LogFile: "homebox-voice-mcp.log"},
		Recorder: RecorderConfig{Dir: filepath.Join("data", "traces")},
		Facts:    FactsConfig{SchemaPath: filepath.Join("schemas", "inventory.mg")},
	}

	resolved := resolveWorkspacePaths(cfg, tmpDir)

	if want := filepath.Join(tmpDir, "homebox-voice-mcp.log"); resolved.Server.LogFile != want {
		t.Errorf("expected log file %q, got %q", want, resolved.Server.LogFile)
	}
	if want := filepath.Join(tmpDir, "data", "traces"); resolved.Recorder.Dir != want {
		t.Errorf("expected recorder dir %q, got %q", want, resolved.Recorder.Dir)
	}
	if want := filepath.Join(tmpDir, "schemas", "inventory.mg"); resolved.Facts.SchemaPath != want {
		t.Errorf("expected schema path %q, got %q", want, resolved.Facts.SchemaPath)
	}
}

func TestResolveWorkspacePaths_AbsoluteUntouched(t *testing.T) {
	wsDir := t.TempDir()

	var absLog, absTraces, absSchema string
	if runtime.GOOS == "windows" {
		absLog = `C:\var\log\homebox-voice.log`
		absTraces = `C:\tmp\traces`
		absSchema = `C:\etc\homebox-voice\inventory.mg`
	} else {
		absLog = "/var/log/homebox-voice.log"
		absTraces = "/tmp/traces"
		absSchema = "/etc/homebox-voice/inventory.mg"
	}

	cfg := Config{
		Server:   ServerConfig{LogFile: absLog},
		Recorder: RecorderConfig{Dir: absTraces},
		Facts:    FactsConfig{SchemaPath: absSchema},
	}

	resolved := resolveWorkspacePaths(cfg, wsDir)

	if resolved.Server.LogFile != absLog {
		t.Errorf("expected absolute log file untouched %q, got %q", absLog, resolved.Server.LogFile)
	}
	if resolved.Recorder.Dir != absTraces {
		t.Errorf("expected absolute recorder dir untouched %q, got %q", absTraces, resolved.Recorder.Dir)
	}
	if resolved.Facts.SchemaPath != absSchema {
		t.Errorf("expected absolute schema path untouched %q, got %q", absSchema, resolved.Facts.SchemaPath)
	}
}

func TestInitWorkspace_Creates(t *testing.T) {
	tmpDir := t.TempDir()

	if err := InitWorkspace(tmpDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wsDir := filepath.Join(tmpDir, WorkspaceDirName)
	for _, dir := range []string{wsDir, filepath.Join(wsDir, "data")} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %q to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %q to be a directory", dir)
		}
	}

	data, err := os.ReadFile(filepath.Join(wsDir, WorkspaceConfigFile))
	if err != nil {
		t.Fatalf("failed to read config template: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty config template")
	}

	data, err = os.ReadFile(filepath.Join(wsDir, ".gitignore"))
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty .gitignore")
	}

	// The template is all comments, so it must load cleanly.
	clearEnv(t)
	if _, _, err := LoadWithWorkspace("", WorkspaceOptions{ExplicitDir: tmpDir}); err != nil {
		t.Errorf("template config failed to load: %v", err)
	}
}

func TestInitWorkspace_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()

	if err := InitWorkspace(tmpDir); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	if err := InitWorkspace(tmpDir); err == nil {
		t.Error("expected error when workspace already exists")
	}
}
