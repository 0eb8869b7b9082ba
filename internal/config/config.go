package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/13rac1/nsload/internal/resolver"
	"github.com/13rac1/nsload/internal/types"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "nsload.yaml"

// Load reads and validates configuration from the specified path.
// Tilde (~) in paths is expanded to the user's home directory. Relative
// directories are resolved against the directory holding the config file.
func Load(path string) (*types.Config, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", expandedPath, err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	configDir, err := filepath.Abs(filepath.Dir(expandedPath))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}

	if err := ApplyDefaults(&cfg, configDir); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults sets default values for optional config fields. baseDir is
// used for an empty or relative resolver directory and namespace_from.
//
// With the s3 backend the directory is a key path below storage.s3.prefix,
// so it defaults to "." and is never joined with baseDir.
func ApplyDefaults(cfg *types.Config, baseDir string) error {
	rc := &cfg.Resolver

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = types.BackendLocal
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if cfg.Storage.Backend == types.BackendS3 {
		if rc.Directory == "" {
			rc.Directory = resolver.DefaultDirectory
		}
	} else {
		dir, err := resolveDir(rc.Directory, baseDir)
		if err != nil {
			return fmt.Errorf("expanding directory: %w", err)
		}
		rc.Directory = dir
	}

	if rc.NamespacePrefix == "" && rc.NamespaceFrom != "" {
		from, err := resolveDir(rc.NamespaceFrom, baseDir)
		if err != nil {
			return fmt.Errorf("expanding namespace_from: %w", err)
		}
		ns, err := DetectNamespaceFile(from)
		if err != nil {
			return fmt.Errorf("detecting namespace: %w", err)
		}
		rc.NamespacePrefix = ns
	}

	if rc.Separator == "" {
		rc.Separator = resolver.DefaultSeparator
	}
	if rc.Extension == "" {
		rc.Extension = resolver.DefaultExtension
	}
	if !strings.HasPrefix(rc.Extension, ".") {
		rc.Extension = "." + rc.Extension
	}
	rc.NamespacePrefix = strings.Trim(rc.NamespacePrefix, rc.Separator)

	if len(rc.ClassRoots) == 0 {
		rc.ClassRoots = resolver.DefaultClassRoots()
	}
	if rc.Lowercase == nil {
		rc.Lowercase = types.FormatTargets{types.TargetFile}
	}
	if rc.Hyphenate == nil {
		rc.Hyphenate = types.FormatTargets{types.TargetFile}
	}
	rc.PrependClass = boolDefault(rc.PrependClass, true)
	rc.PrependInterface = boolDefault(rc.PrependInterface, true)
	rc.PrependTrait = boolDefault(rc.PrependTrait, true)

	if rc.Order == "" {
		rc.Order = types.OrderRootMajor
	}
	if rc.PrefixMatch == "" {
		rc.PrefixMatch = types.MatchSubstring
	}

	// Ensure prefix has trailing slash for consistent key building
	if cfg.Storage.S3.Prefix != "" && !strings.HasSuffix(cfg.Storage.S3.Prefix, "/") {
		cfg.Storage.S3.Prefix = cfg.Storage.S3.Prefix + "/"
	}

	return nil
}

// validate ensures config fields hold supported values.
func validate(cfg *types.Config) error {
	switch cfg.Resolver.Order {
	case types.OrderRootMajor, types.OrderVariantMajor:
	default:
		return fmt.Errorf("resolver.order must be %q or %q, got %q",
			types.OrderRootMajor, types.OrderVariantMajor, cfg.Resolver.Order)
	}

	switch cfg.Resolver.PrefixMatch {
	case types.MatchSubstring, types.MatchSegments:
	default:
		return fmt.Errorf("resolver.prefix_match must be %q or %q, got %q",
			types.MatchSubstring, types.MatchSegments, cfg.Resolver.PrefixMatch)
	}

	switch cfg.Storage.Backend {
	case types.BackendLocal:
	case types.BackendS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			types.BackendLocal, types.BackendS3, cfg.Storage.Backend)
	}

	return nil
}

// DetectNamespaceFile returns the namespace declared in a source file.
func DetectNamespaceFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	ns, err := DetectNamespace(f)
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", path, err)
	}
	return ns, nil
}

// ErrNoNamespace is returned when a file has no namespace declaration.
var ErrNoNamespace = errors.New("no namespace declaration found")

// DetectNamespace returns the name from the first line starting with
// "namespace", e.g. "namespace Acme\Plugin;" -> `Acme\Plugin`.
func DetectNamespace(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if ns, ok := parseNamespaceLine(line); ok {
			return ns, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoNamespace
		}
		if err != nil {
			return "", err
		}
	}
}

// parseNamespaceLine extracts the name from a "namespace X;" line. Lines may
// be of any length.
func parseNamespaceLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "namespace") {
		return "", false
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "namespace" {
		return "", false
	}

	ns := strings.TrimRight(fields[1], ";{")
	return ns, ns != ""
}

const starterConfig = `# nsload configuration
resolver:
  # Base directory; relative paths are resolved against this file's directory.
  directory: .
  # Namespace owned by this resolver. Alternatively set namespace_from to a
  # source file whose namespace declaration should be used.
  namespace_prefix: YOUR\Namespace
  class_roots: [".", "vendor"]
  # file | folders | none
  lowercase: [file]
  hyphenate: [file]
  prepend_class: true
  prepend_interface: true
  prepend_trait: true
  # root-major | variant-major
  order: root-major
  # substring | segments
  prefix_match: substring

storage:
  # local | s3
  backend: local
  s3:
    bucket: ""
    prefix: ""
    region: ""
    # endpoint: https://s3.us-west-002.backblazeb2.com
    # force_path_style: true

auth:
  profile: ""

debug: false
`

// CreateStarterConfig writes a commented starter config to path. It refuses
// to overwrite an existing file.
func CreateStarterConfig(path string) error {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	if dir := filepath.Dir(expandedPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.OpenFile(expandedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	if _, err := f.WriteString(starterConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}

	return f.Close()
}

// resolveDir expands tilde and makes relative paths relative to baseDir.
func resolveDir(dir, baseDir string) (string, error) {
	if dir == "" {
		return baseDir, nil
	}

	expanded, err := expandTilde(dir)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(expanded) || baseDir == "" {
		return expanded, nil
	}
	return filepath.Join(baseDir, expanded), nil
}

func boolDefault(v *bool, def bool) *bool {
	if v != nil {
		return v
	}
	return &def
}

// expandTilde replaces ~ at the start of a path with the user's home directory.
func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}
