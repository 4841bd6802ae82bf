package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var (
	homeID   = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	garageID = uuid.MustParse("10000000-0000-0000-0000-000000000002")
	shelfID  = uuid.MustParse("10000000-0000-0000-0000-000000000003")
)

func fakeHomebox(t *testing.T) *httptest.Server {
	t.Helper()
	tree := []inventory.TreeNode{
		{ID: homeID, Name: "Home", Kind: inventory.KindLocation, Children: []inventory.TreeNode{
			{ID: garageID, Name: "Garage", Kind: inventory.KindLocation, Children: []inventory.TreeNode{
				{ID: shelfID, Name: "Shelf", Kind: inventory.KindLocation},
			}},
		}},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "Bearer t"})
	})
	mux.HandleFunc("/api/v1/locations/tree", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tree)
	})
	mux.HandleFunc("/api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": garageID, "name": "Garage", "itemCount": 4},
			{"id": shelfID, "name": "Shelf", "itemCount": 0},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	for _, k := range []string{"HOMEBOX_BASE_URL", "HOMEBOX_USERNAME", "HOMEBOX_PASSWORD", "HOMEBOX_VOICE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "homebox:\n" +
		"  base_url: " + baseURL + "\n" +
		"  username: alice\n" +
		"  password: secret\n" +
		"facts:\n" +
		"  schema_path: ../../schemas/inventory.mg\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	srv := fakeHomebox(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := execute(t, "resolve", "home / GARAGE/shelf", "--config", cfgPath, "--no-workspace")
	require.NoError(t, err)
	assert.Equal(t, shelfID.String()+"\n", out)

	out, err = execute(t, "resolve", "Garage", "--config", cfgPath, "--no-workspace")
	require.NoError(t, err)
	assert.Equal(t, garageID.String()+"\n", out)

	_, err = execute(t, "resolve", "Attic", "--config", cfgPath, "--no-workspace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find location Attic")

	_, err = execute(t, "resolve", " / ", "--config", cfgPath, "--no-workspace")
	assert.Error(t, err)
}

func TestTreeCommand(t *testing.T) {
	srv := fakeHomebox(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := execute(t, "tree", "--config", cfgPath, "--no-workspace")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Home":{"Garage":{"Shelf":{}}}}`, out)
}

func TestLocationsCommand(t *testing.T) {
	srv := fakeHomebox(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := execute(t, "locations", "--config", cfgPath, "--no-workspace")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Garage")
	assert.Contains(t, lines[1], "4")
}

func TestConfigErrorsSurface(t *testing.T) {
	cfgPath := writeConfig(t, "ftp://nowhere")
	_, err := execute(t, "resolve", "Garage", "--config", cfgPath, "--no-workspace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized workspace")
	assert.FileExists(t, filepath.Join(dir, config.WorkspaceDirName, config.WorkspaceConfigFile))

	_, err = execute(t, "init", dir)
	assert.Error(t, err)

	_, err = execute(t, "init", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestNewAppWiring(t *testing.T) {
	srv := fakeHomebox(t)
	cfg := config.DefaultConfig()
	cfg.Homebox = config.HomeboxConfig{BaseURL: srv.URL, Username: "alice", Password: "secret"}
	cfg.Facts.SchemaPath = "../../schemas/inventory.mg"
	cfg.Recorder = config.RecorderConfig{Enable: true, Dir: t.TempDir()}
	cfg.Display = config.DisplayConfig{Enable: true, Addr: "127.0.0.1:0"}

	a, err := newApp(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.close()

	require.NotNil(t, a.display)
	require.NotNil(t, a.recorder)
	assert.Contains(t, a.recorder.Path(), a.session.ID().String())
	assert.Len(t, a.registry.List(), 6)
	assert.True(t, a.engine.Ready())

	out, err := a.server.ExecuteTool(context.Background(), "setCurrentLocation", map[string]interface{}{"location": "garage"})
	require.NoError(t, err)
	assert.Equal(t, "Current location set to garage", out)
	require.NotNil(t, a.session.CurrentLocation())
	assert.Equal(t, garageID, *a.session.CurrentLocation())

	ids, err := a.engine.Query(context.Background(), "visited(Id).")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, garageID.String(), ids[0]["Id"])
}

func TestNewAppDefaultsUseEmbeddedSchema(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Homebox = config.HomeboxConfig{BaseURL: "http://localhost:7745", Username: "alice", Password: "secret"}

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	a, err := newApp(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.close()
	assert.True(t, a.engine.Enabled())
	assert.True(t, a.engine.Ready())
}

func TestNewAppWarnsWithoutCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.DefaultConfig()

	a, err := newApp(cfg, zap.New(core))
	require.NoError(t, err)
	defer a.close()

	warnings := logs.FilterMessageSnippet("credentials missing").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, cfg.Homebox.BaseURL, warnings[0].ContextMap()["base_url"])

	core, logs = observer.New(zapcore.WarnLevel)
	cfg.Homebox.Username, cfg.Homebox.Password = "alice", "secret"
	b, err := newApp(cfg, zap.New(core))
	require.NoError(t, err)
	defer b.close()
	assert.Zero(t, logs.FilterMessageSnippet("credentials missing").Len())
}

func TestNewAppBadSchema(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Homebox.BaseURL = "http://localhost"
	cfg.Facts.SchemaPath = filepath.Join(t.TempDir(), "missing.mg")

	_, err := newApp(cfg, nil)
	assert.Error(t, err)
}
