package resolver

import (
	"github.com/13rac1/nsload/internal/types"
)

const (
	// DefaultSeparator is the namespace separator used by qualified names.
	DefaultSeparator = `\`
	// DefaultExtension is appended to every candidate file name.
	DefaultExtension = ".php"
	// DefaultDirectory is used when no base directory is configured.
	DefaultDirectory = "."
)

// DefaultClassRoots returns the class roots searched when none are configured.
func DefaultClassRoots() []string {
	return []string{".", "vendor"}
}

// settings is the mutable form of a Resolver while options are applied.
type settings struct {
	directory        string
	roots            []string
	prefix           string
	separator        string
	extension        string
	lowercase        types.FormatTargets
	hyphenate        types.FormatTargets
	prependClass     bool
	prependInterface bool
	prependTrait     bool
	order            types.Order
	match            types.PrefixMatch
}

func defaultSettings() settings {
	return settings{
		directory:        DefaultDirectory,
		roots:            DefaultClassRoots(),
		separator:        DefaultSeparator,
		extension:        DefaultExtension,
		lowercase:        types.FormatTargets{types.TargetFile},
		hyphenate:        types.FormatTargets{types.TargetFile},
		prependClass:     true,
		prependInterface: true,
		prependTrait:     true,
		order:            types.OrderRootMajor,
		match:            types.MatchSubstring,
	}
}

// Option is a functional option that mutates resolver settings during construction.
type Option func(*settings)

// WithDirectory sets the base directory. An empty value keeps the default.
func WithDirectory(dir string) Option {
	return func(s *settings) {
		if dir != "" {
			s.directory = dir
		}
	}
}

// WithClassRoots sets the ordered class roots. An empty list keeps the default.
func WithClassRoots(roots ...string) Option {
	return func(s *settings) {
		if len(roots) == 0 {
			return
		}
		s.roots = append([]string(nil), roots...)
	}
}

// WithNamespacePrefix sets the namespace prefix owned by the resolver.
func WithNamespacePrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithSeparator sets the namespace separator. An empty value keeps the default.
func WithSeparator(sep string) Option {
	return func(s *settings) {
		if sep != "" {
			s.separator = sep
		}
	}
}

// WithExtension sets the file extension, adding a leading dot if missing.
func WithExtension(ext string) Option {
	return func(s *settings) {
		if ext == "" {
			return
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		s.extension = ext
	}
}

// WithLowercase sets where names are lowercased. Call with no targets to disable.
func WithLowercase(targets ...types.FormatTarget) Option {
	return func(s *settings) {
		s.lowercase = append(types.FormatTargets{}, targets...)
	}
}

// WithHyphenate sets where underscores become hyphens. Call with no targets to disable.
func WithHyphenate(targets ...types.FormatTarget) Option {
	return func(s *settings) {
		s.hyphenate = append(types.FormatTargets{}, targets...)
	}
}

// WithPrepend toggles the class-, interface- and trait- file variants.
func WithPrepend(class, iface, trait bool) Option {
	return func(s *settings) {
		s.prependClass = class
		s.prependInterface = iface
		s.prependTrait = trait
	}
}

// WithOrder sets the candidate nesting order. Unknown values keep the default.
func WithOrder(order types.Order) Option {
	return func(s *settings) {
		switch order {
		case types.OrderRootMajor, types.OrderVariantMajor:
			s.order = order
		}
	}
}

// WithPrefixMatch sets the NeedsLoad prefix policy. Unknown values keep the default.
func WithPrefixMatch(match types.PrefixMatch) Option {
	return func(s *settings) {
		switch match {
		case types.MatchSubstring, types.MatchSegments:
			s.match = match
		}
	}
}

// FromConfig converts a ResolverConfig into options. Unset fields keep
// their defaults, so a zero ResolverConfig yields the default resolver.
func FromConfig(cfg types.ResolverConfig) []Option {
	opts := []Option{
		WithDirectory(cfg.Directory),
		WithClassRoots(cfg.ClassRoots...),
		WithNamespacePrefix(cfg.NamespacePrefix),
		WithSeparator(cfg.Separator),
		WithExtension(cfg.Extension),
		WithOrder(cfg.Order),
		WithPrefixMatch(cfg.PrefixMatch),
	}

	if cfg.Lowercase != nil {
		opts = append(opts, WithLowercase(cfg.Lowercase...))
	}
	if cfg.Hyphenate != nil {
		opts = append(opts, WithHyphenate(cfg.Hyphenate...))
	}

	class, iface, trait := boolOr(cfg.PrependClass, true), boolOr(cfg.PrependInterface, true), boolOr(cfg.PrependTrait, true)
	opts = append(opts, WithPrepend(class, iface, trait))

	return opts
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
