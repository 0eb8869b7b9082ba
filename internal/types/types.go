// Package types defines the core data structures used throughout nsload.
// This includes configuration structs, formatting enums and resolution results.
package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for nsload.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Debug    bool           `yaml:"debug"`
}

// ResolverConfig holds the naming-convention settings used to turn a
// qualified name into candidate file paths.
type ResolverConfig struct {
	Directory        string        `yaml:"directory"`
	NamespacePrefix  string        `yaml:"namespace_prefix"`
	NamespaceFrom    string        `yaml:"namespace_from"`
	Separator        string        `yaml:"separator"`
	Extension        string        `yaml:"extension"`
	ClassRoots       []string      `yaml:"class_roots"`
	Lowercase        FormatTargets `yaml:"lowercase"`
	Hyphenate        FormatTargets `yaml:"hyphenate"`
	PrependClass     *bool         `yaml:"prepend_class"`
	PrependInterface *bool         `yaml:"prepend_interface"`
	PrependTrait     *bool         `yaml:"prepend_trait"`
	Order            Order         `yaml:"order"`
	PrefixMatch      PrefixMatch   `yaml:"prefix_match"`
}

// StorageConfig selects where candidate paths are probed and loaded from.
type StorageConfig struct {
	Backend string   `yaml:"backend"`
	S3      S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// AuthConfig holds authentication credentials.
type AuthConfig struct {
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// FormatTarget names the part of a path a formatting rule applies to.
type FormatTarget string

const (
	TargetFile   FormatTarget = "file"
	TargetFolder FormatTarget = "folders"
)

// FormatTargets is a set of format targets. In YAML it is a list such as
// [file, folders]; "folder" is accepted as an alias and "none" means empty.
type FormatTargets []FormatTarget

// Has reports whether t is in the set.
func (ts FormatTargets) Has(t FormatTarget) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts a list or a single scalar.
func (ts *FormatTargets) UnmarshalYAML(value *yaml.Node) error {
	var list []string
	switch value.Kind {
	case yaml.ScalarNode:
		list = []string{value.Value}
	case yaml.SequenceNode:
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("decoding format targets: %w", err)
		}
	default:
		return fmt.Errorf("format targets must be a string or a list of strings")
	}

	parsed, err := ParseFormatTargets(list)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// ParseFormatTargets converts user input to a FormatTargets set.
// The result is non-nil even when empty so that an explicit "none"
// can be told apart from an unset field.
func ParseFormatTargets(values []string) (FormatTargets, error) {
	out := FormatTargets{}
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "file", "files":
			if !out.Has(TargetFile) {
				out = append(out, TargetFile)
			}
		case "folder", "folders":
			if !out.Has(TargetFolder) {
				out = append(out, TargetFolder)
			}
		case "both":
			out = FormatTargets{TargetFile, TargetFolder}
		case "none", "":
		default:
			return nil, fmt.Errorf("unknown format target %q (want file, folders, both or none)", v)
		}
	}
	return out, nil
}

// Marker is the kind of definition a file is expected to contain.
type Marker string

const (
	MarkerNone      Marker = ""
	MarkerClass     Marker = "class"
	MarkerInterface Marker = "interface"
	MarkerTrait     Marker = "trait"
	MarkerAbstract  Marker = "abstract"
)

// Order controls how candidates are nested across class roots and variants.
type Order string

const (
	// OrderRootMajor emits every variant for the first root before moving
	// to the next root.
	OrderRootMajor Order = "root-major"
	// OrderVariantMajor emits the first variant under every root before the
	// next variant.
	OrderVariantMajor Order = "variant-major"
)

// PrefixMatch controls how NeedsLoad decides a name belongs to the prefix.
type PrefixMatch string

const (
	// MatchSubstring accepts any name containing the prefix text.
	MatchSubstring PrefixMatch = "substring"
	// MatchSegments requires the leading namespace segments to equal the prefix.
	MatchSegments PrefixMatch = "segments"
)

// Candidate is one path the resolver suggests for a qualified name.
type Candidate struct {
	Path   string `json:"path" yaml:"path"`
	Root   string `json:"root" yaml:"root"`
	Marker Marker `json:"marker" yaml:"marker"`
}

// CandidateStatus pairs a candidate with the result of probing it.
type CandidateStatus struct {
	Candidate `yaml:",inline"`
	Exists    bool `json:"exists" yaml:"exists"`
}

// Resolution is the full answer for one qualified name.
type Resolution struct {
	Name       string            `json:"name" yaml:"name"`
	NeedsLoad  bool              `json:"needsLoad" yaml:"needsLoad"`
	Candidates []CandidateStatus `json:"candidates" yaml:"candidates"`
}

// LoadResult describes a successful load.
type LoadResult struct {
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
	Size  int    `json:"size" yaml:"size"`
	Tried int    `json:"tried" yaml:"tried"`
}

// SourceFile is a file found under a class root.
type SourceFile struct {
	Root    string `json:"root" yaml:"root"`
	RelPath string `json:"relPath" yaml:"relPath"`
	Path    string `json:"path" yaml:"path"`
	Marker  Marker `json:"marker" yaml:"marker"`
	Size    int64  `json:"size" yaml:"size"`
}
