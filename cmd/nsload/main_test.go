package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/13rac1/nsload/internal/types"
)

const testConfig = `resolver:
  namespace_prefix: Acme
  prepend_interface: false
  prepend_trait: false
`

// setupProject creates a project with one class file and a config file,
// returning the project directory and config path.
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	createFile(t, filepath.Join(dir, "Cache", "class-redis-store.php"), "<?php\nclass Redis_Store {}\n")
	createFile(t, filepath.Join(dir, "vendor", "Lib", "class-dep.php"), "<?php\n")

	cfgPath := filepath.Join(dir, "nsload.yaml")
	createFile(t, cfgPath, testConfig)
	return dir, cfgPath
}

// run executes the root command with args and returns captured stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	var err error
	out := captureStdout(t, func() {
		rootCmd.SetArgs(args)
		err = rootCmd.Execute()
	})
	return out, err
}

// captureStdout captures os.Stdout output from the given function.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	require.NoError(t, w.Close())
	os.Stdout = oldStdout
	return <-done
}

// resetFlags restores flag variables, which persist across Execute calls.
func resetFlags(t *testing.T) {
	t.Helper()
	configPath = defaultConfigPath
	directoryFlag = ""
	namespaceFlag = ""
	rootsFlag = nil
	debug = false
	formatFlag = "table"
	checkFlag = false
	jsonOutput = false
}

func TestResolveCommand(t *testing.T) {
	dir, cfgPath := setupProject(t)

	out, err := run(t, "resolve", "--config", cfgPath, "--check", `Acme\Cache\Redis_Store`)
	require.NoError(t, err)

	assert.Contains(t, out, `Candidates for Acme\Cache\Redis_Store`)
	assert.Contains(t, out, dir+"/./Cache/class-redis-store.php")
	assert.Contains(t, out, dir+"/vendor/Cache/class-redis-store.php")

	found := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "/./Cache/class-redis-store.php") && strings.Contains(line, "yes") {
			found = true
		}
	}
	assert.True(t, found, "expected the existing candidate to be marked, got:\n%s", out)
}

func TestResolveCommandJSON(t *testing.T) {
	dir, cfgPath := setupProject(t)

	out, err := run(t, "resolve", "--config", cfgPath, "--check", "-o", "json",
		`Acme\Cache\Redis_Store`, `Other\Thing`)
	require.NoError(t, err)

	var got []types.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	assert.True(t, got[0].NeedsLoad)
	require.Len(t, got[0].Candidates, 2)
	assert.Equal(t, dir+"/./Cache/class-redis-store.php", got[0].Candidates[0].Path)
	assert.True(t, got[0].Candidates[0].Exists)
	assert.False(t, got[0].Candidates[1].Exists)

	assert.False(t, got[1].NeedsLoad)
	assert.Empty(t, got[1].Candidates)
}

func TestResolveCommandOverrides(t *testing.T) {
	_, cfgPath := setupProject(t)

	out, err := run(t, "resolve", "--config", cfgPath, "-o", "yaml",
		"--namespace", "Other", "--root", "lib", "--directory", "/srv",
		`Other\Thing`)
	require.NoError(t, err)

	assert.Contains(t, out, "path: /srv/lib/class-thing.php")
	assert.NotContains(t, out, "vendor")
}

func TestResolveCommandBadFormat(t *testing.T) {
	_, cfgPath := setupProject(t)

	_, err := run(t, "resolve", "--config", cfgPath, "-o", "xml", `Acme\Foo`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestLoadCommand(t *testing.T) {
	dir, cfgPath := setupProject(t)

	out, err := run(t, "load", "--config", cfgPath, `Acme\Cache\Redis_Store`)
	require.NoError(t, err)

	assert.Contains(t, out, `Loaded Acme\Cache\Redis_Store from `+dir+"/./Cache/class-redis-store.php")
	assert.Contains(t, out, "1 candidates tried")
}

func TestLoadCommandMissing(t *testing.T) {
	_, cfgPath := setupProject(t)

	out, err := run(t, "load", "--config", cfgPath, `Acme\Cache\Redis_Store`, `Acme\Missing`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 names could not be loaded")
	assert.Contains(t, out, "Loaded Acme\\Cache\\Redis_Store")
}

func TestScanCommand(t *testing.T) {
	_, cfgPath := setupProject(t)

	out, err := run(t, "scan", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Source Files")
	assert.Contains(t, out, "class-redis-store.php")
	assert.Contains(t, out, "class-dep.php")
	assert.Contains(t, out, "vendor: 1 files")
}

func TestScanCommandJSON(t *testing.T) {
	dir, cfgPath := setupProject(t)

	out, err := run(t, "scan", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var got struct {
		Config struct {
			Directory string `json:"directory"`
		} `json:"config"`
		Counts map[string]int      `json:"counts"`
		Files  []types.SourceFile `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, dir, got.Config.Directory)
	assert.Equal(t, map[string]int{".": 1, "vendor": 1}, got.Counts)
	require.Len(t, got.Files, 2)
	assert.Equal(t, types.MarkerClass, got.Files[0].Marker)
}

func TestInitCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nsload.yaml")

	out, err := run(t, "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to nsload!")

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `YOUR\Namespace`)

	_, err = run(t, "init", "--config", cfgPath)
	assert.Error(t, err, "init must not overwrite an existing config")
}

func createFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "creating %s", path)
}

func TestLoadConfigAutoCreation(t *testing.T) {
	testConfigPath := filepath.Join(t.TempDir(), "nsload.yaml")

	oldConfigPath := configPath
	oldDefaultConfigPath := defaultConfigPath
	oldExitFunc := exitFunc
	defer func() {
		configPath = oldConfigPath
		defaultConfigPath = oldDefaultConfigPath
		exitFunc = oldExitFunc
	}()

	configPath = testConfigPath
	defaultConfigPath = testConfigPath

	exitCalled := false
	exitCode := -1
	exitFunc = func(code int) {
		exitCalled = true
		exitCode = code
	}

	var err error
	out := captureStdout(t, func() {
		_, err = loadConfig()
	})

	assert.True(t, exitCalled, "expected exitFunc to be called after creating starter config")
	assert.Equal(t, 0, exitCode)
	if err != nil {
		assert.Contains(t, err.Error(), "config file not found")
	}
	assert.Contains(t, out, "Welcome to nsload!")

	content, err := os.ReadFile(testConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `YOUR\Namespace`)
}

func TestLoadConfigCustomPathNoAutoCreation(t *testing.T) {
	tmpDir := t.TempDir()
	customPath := filepath.Join(tmpDir, "custom-config.yaml")

	oldConfigPath := configPath
	oldDefaultConfigPath := defaultConfigPath
	defer func() {
		configPath = oldConfigPath
		defaultConfigPath = oldDefaultConfigPath
	}()

	defaultConfigPath = filepath.Join(tmpDir, "nsload.yaml")
	configPath = customPath

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	_, statErr := os.Stat(customPath)
	assert.True(t, os.IsNotExist(statErr), "custom config path should not be auto-created")
}

func TestApplyOverrides(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cfg := &types.Config{Resolver: types.ResolverConfig{
		Directory:       "/proj",
		NamespacePrefix: "Acme",
		ClassRoots:      []string{".", "vendor"},
	}}

	applyOverrides(cfg)
	assert.Equal(t, "/proj", cfg.Resolver.Directory, "no flags leaves config untouched")

	directoryFlag = "/other"
	namespaceFlag = `Other\Ns`
	rootsFlag = []string{"lib"}
	applyOverrides(cfg)

	assert.Equal(t, "/other", cfg.Resolver.Directory)
	assert.Equal(t, `Other\Ns`, cfg.Resolver.NamespacePrefix)
	assert.Equal(t, []string{"lib"}, cfg.Resolver.ClassRoots)
}

func TestPrintWelcomeMessage(t *testing.T) {
	configPath := "/test/path/nsload.yaml"
	out := captureStdout(t, func() {
		printWelcomeMessage(configPath)
	})

	for _, phrase := range []string{
		"Welcome to nsload!",
		configPath,
		"resolver.namespace_prefix",
		"resolver.class_roots",
		"storage.backend",
		"auth.profile",
		"nsload doctor",
		"nsload scan",
		"nsload resolve",
		"nsload load",
	} {
		assert.Contains(t, out, phrase)
	}
}
