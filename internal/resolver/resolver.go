// Package resolver maps namespaced class names to candidate source file paths
// following the WordPress file naming conventions: lowercased names, hyphens
// instead of underscores and a class-, interface- or trait- prefix.
//
// A Resolver is immutable once built and every lookup is recomputed from its
// settings, so it is safe for concurrent use.
package resolver

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/13rac1/nsload/internal/types"
)

// Resolver turns qualified names into ordered candidate paths.
type Resolver struct {
	s settings
}

// suffixSwap rewrites a formatted name ending in a marker suffix into the
// marker-first form, e.g. "cache-interface" -> "interface-cache".
type suffixSwap struct {
	marker types.Marker
	re     *regexp.Regexp
}

// Order matters: the first matching rule wins.
var suffixSwaps = []suffixSwap{
	{types.MarkerAbstract, regexp.MustCompile(`^(.+)-abstract$`)},
	{types.MarkerInterface, regexp.MustCompile(`^(.+)-interface$`)},
}

var hyphenReplacer = strings.NewReplacer("_", "-", "\x00", "")

// New builds a Resolver from the defaults overridden by opts.
func New(opts ...Option) *Resolver {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	s.prefix = trimSeparator(s.prefix, s.separator)
	return &Resolver{s: s}
}

// Directory returns the base directory.
func (r *Resolver) Directory() string { return r.s.directory }

// ClassRoots returns a copy of the configured class roots.
func (r *Resolver) ClassRoots() []string { return append([]string(nil), r.s.roots...) }

// NamespacePrefix returns the trimmed namespace prefix.
func (r *Resolver) NamespacePrefix() string { return r.s.prefix }

// Extension returns the source file extension, including the dot.
func (r *Resolver) Extension() string { return r.s.extension }

// Order returns the candidate nesting order.
func (r *Resolver) Order() types.Order { return r.s.order }

// NeedsLoad reports whether name should be loaded by this resolver: it is
// not already defined according to isDefined, and it belongs to the
// namespace prefix. A nil isDefined treats every name as undefined.
func (r *Resolver) NeedsLoad(name string, isDefined func(string) bool) bool {
	if isDefined != nil && isDefined(name) {
		return false
	}
	return r.Matches(name)
}

// Matches reports whether name falls under the namespace prefix.
//
// The substring policy accepts any name containing the prefix text, which
// also admits names like "Other\Acme\Foo". The segments policy requires the
// name to start with the prefix followed by a separator.
func (r *Resolver) Matches(name string) bool {
	if r.s.match == types.MatchSegments {
		if r.s.prefix == "" {
			return true
		}
		return strings.HasPrefix(trimSeparator(name, r.s.separator), r.s.prefix+r.s.separator)
	}
	return strings.Contains(name, r.s.prefix)
}

// Resolve returns the candidate paths for name, most preferred first.
func (r *Resolver) Resolve(name string) []string {
	candidates := r.Candidates(name)
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}
	return paths
}

// Candidates returns the candidates for name along with the class root and
// marker that produced each one. Returns nil for an empty name.
func (r *Resolver) Candidates(name string) []types.Candidate {
	rel := r.stripPrefix(name)
	if rel == "" {
		return nil
	}

	segments := splitSegments(rel, r.s.separator)
	simple := segments[len(segments)-1]
	nsPath := r.NamespaceFilePath(segments[:len(segments)-1])
	files := r.fileVariants(simple)
	dirs := r.rootDirs()

	out := make([]types.Candidate, 0, len(dirs)*len(files))
	emit := func(d rootDir, f fileVariant) {
		out = append(out, types.Candidate{
			Path:   d.path + nsPath + f.name,
			Root:   d.root,
			Marker: f.marker,
		})
	}

	if r.s.order == types.OrderVariantMajor {
		for _, f := range files {
			for _, d := range dirs {
				emit(d, f)
			}
		}
		return out
	}

	for _, d := range dirs {
		for _, f := range files {
			emit(d, f)
		}
	}
	return out
}

// NamespaceFilePath joins namespace directory segments with the platform
// separator and applies folder formatting. The result is empty or ends with
// a separator.
func (r *Resolver) NamespaceFilePath(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	sep := string(filepath.Separator)
	p := r.format(strings.Join(segments, sep)+sep, types.TargetFolder)
	if strings.Trim(p, `/\`) == "" {
		return ""
	}
	return p
}

// FileName returns the file name for a simple class name and marker,
// applying file formatting, the suffix swap rules and the extension.
// MarkerNone yields the formatted name without any prefix.
func (r *Resolver) FileName(simple string, marker types.Marker) string {
	base := r.format(simple, types.TargetFile)
	if marker == types.MarkerNone {
		return base + r.s.extension
	}
	name, _ := applyMarker(base, marker)
	return name + r.s.extension
}

func (r *Resolver) stripPrefix(name string) string {
	name = trimSeparator(name, r.s.separator)
	if r.s.prefix == "" {
		return name
	}
	if rest, ok := strings.CutPrefix(name, r.s.prefix+r.s.separator); ok {
		return rest
	}
	return name
}

func (r *Resolver) format(s string, target types.FormatTarget) string {
	if r.s.lowercase.Has(target) {
		s = cases.Lower(language.Und).String(s)
	}
	if r.s.hyphenate.Has(target) {
		s = hyphenReplacer.Replace(s)
	}
	return s
}

type fileVariant struct {
	name   string
	marker types.Marker
}

// fileVariants lists file names in preference order: class first, then
// interface and trait when enabled. A swap rule can make several variants
// produce the same name; each distinct name is listed once.
func (r *Resolver) fileVariants(simple string) []fileVariant {
	if !r.s.prependClass && !r.s.prependInterface && !r.s.prependTrait {
		return []fileVariant{{name: r.FileName(simple, types.MarkerNone), marker: types.MarkerNone}}
	}

	markers := []types.Marker{types.MarkerClass}
	if r.s.prependInterface {
		markers = append(markers, types.MarkerInterface)
	}
	if r.s.prependTrait {
		markers = append(markers, types.MarkerTrait)
	}

	base := r.format(simple, types.TargetFile)
	seen := make(map[string]bool, len(markers))
	var out []fileVariant
	for _, m := range markers {
		name, marker := applyMarker(base, m)
		name += r.s.extension
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, fileVariant{name: name, marker: marker})
	}
	return out
}

// applyMarker prefixes name with marker unless a suffix swap rule applies,
// in which case the swapped name and the swapped marker are returned.
func applyMarker(name string, marker types.Marker) (string, types.Marker) {
	for _, sw := range suffixSwaps {
		if sw.re.MatchString(name) {
			return sw.re.ReplaceAllString(name, string(sw.marker)+"-$1"), sw.marker
		}
	}
	return string(marker) + "-" + name, marker
}

type rootDir struct {
	root string
	path string
}

// rootDirs returns "<directory>/<root>/" for each class root. An empty
// root contributes no path segment.
func (r *Resolver) rootDirs() []rootDir {
	sep := string(filepath.Separator)
	base := strings.TrimRight(r.s.directory, `/\`)

	dirs := make([]rootDir, 0, len(r.s.roots))
	for _, root := range r.s.roots {
		clean := strings.Trim(root, sep)
		if clean != "" {
			clean += sep
		}
		dirs = append(dirs, rootDir{root: root, path: base + sep + clean})
	}
	return dirs
}

func splitSegments(name, sep string) []string {
	parts := strings.Split(name, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func trimSeparator(s, sep string) string {
	for strings.HasPrefix(s, sep) {
		s = s[len(sep):]
	}
	for strings.HasSuffix(s, sep) {
		s = s[:len(s)-len(sep)]
	}
	return s
}
