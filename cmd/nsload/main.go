package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/13rac1/nsload/internal/config"
	"github.com/13rac1/nsload/internal/discover"
	"github.com/13rac1/nsload/internal/doctor"
	"github.com/13rac1/nsload/internal/host"
	"github.com/13rac1/nsload/internal/loader"
	"github.com/13rac1/nsload/internal/output"
	"github.com/13rac1/nsload/internal/resolver"
	"github.com/13rac1/nsload/internal/source"
	"github.com/13rac1/nsload/internal/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath        string
	defaultConfigPath = config.DefaultFileName
)

// Overrides applied on top of the config file.
var (
	directoryFlag string
	namespaceFlag string
	rootsFlag     []string
	debug         bool
)

var (
	formatFlag string
	checkFlag  bool
	jsonOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "nsload",
	Short:   "Namespace autoloader - resolve class names to WordPress-style files",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Long: `nsload maps namespaced class names such as Acme\Cache\Redis_Store to
candidate source files following the WordPress naming conventions
(class-redis-store.php, interface-..., trait-...) and loads the first one found,
either from the local filesystem or from S3-compatible storage.`,
	SilenceUsage: true,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME...",
	Short: "Print the candidate files for qualified names",
	Long: `Prints every candidate path for each name, most preferred first.
With --check each candidate is probed against the configured storage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		res := buildResolver(cfg)

		var src source.Source
		if checkFlag {
			src, err = buildSource(ctx, cfg)
			if err != nil {
				return err
			}
		}

		resolutions := make([]types.Resolution, 0, len(args))
		for _, name := range args {
			r, err := resolveName(ctx, res, src, name)
			if err != nil {
				return err
			}
			resolutions = append(resolutions, r)
		}

		if format != output.FormatTable {
			return output.WriteObject(os.Stdout, format, resolutions)
		}

		for i, r := range resolutions {
			if i > 0 {
				fmt.Println()
			}
			output.PrintCandidates(r, checkFlag)
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load NAME...",
	Short: "Load the first existing candidate file for each name",
	Long: `Runs each name through the autoloader chain and reports the file that was
loaded. Names already loaded in this run are not loaded twice. Exits non-zero
if any name could not be loaded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.Debug || debug)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		src, err := buildSource(ctx, cfg)
		if err != nil {
			return err
		}

		l := loader.New(buildResolver(cfg), src,
			loader.WithLogger(logger),
			loader.WithDebug(cfg.Debug || debug),
		)

		h := host.New(logger)
		h.Register(l)

		var failed int
		for _, name := range args {
			r, err := h.Require(ctx, name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				failed++
				continue
			}
			output.PrintLoadResult(r)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d names could not be loaded", failed, len(args))
		}
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List source files under the class roots",
	Long: `Lists every source file found under the configured class roots, with the
definition marker encoded in its file name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		files, err := scanFiles(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := output.PrintScanJSON(files, cfg); err != nil {
				return fmt.Errorf("printing JSON output: %w", err)
			}
			return nil
		}

		output.PrintSourceFiles(files)
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and class roots",
	Long: `Checks that the configuration is valid, the namespace prefix is set and the
class roots exist and contain source files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		allPassed := doctor.RunChecks(cfg, configPath)
		if !allPassed {
			exitFunc(1)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateStarterConfig(configPath); err != nil {
			return fmt.Errorf("creating starter config: %w", err)
		}
		printWelcomeMessage(configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")
	rootCmd.PersistentFlags().StringVar(&directoryFlag, "directory", "", "override resolver.directory")
	rootCmd.PersistentFlags().StringVar(&namespaceFlag, "namespace", "", "override resolver.namespace_prefix")
	rootCmd.PersistentFlags().StringSliceVar(&rootsFlag, "root", nil, "override resolver.class_roots (repeatable)")

	resolveCmd.Flags().StringVarP(&formatFlag, "format", "o", string(output.FormatTable), "output format: table, json or yaml")
	resolveCmd.Flags().BoolVar(&checkFlag, "check", false, "probe each candidate against storage")
	loadCmd.Flags().BoolVar(&debug, "debug", false, "log candidates and autoloader decisions")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
}

var exitFunc = os.Exit

func loadConfig() (*types.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			isDefaultPath := configPath == defaultConfigPath
			if isDefaultPath {
				if err := config.CreateStarterConfig(configPath); err != nil {
					return nil, fmt.Errorf("creating starter config: %w", err)
				}
				printWelcomeMessage(configPath)
				exitFunc(0)
			}
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	applyOverrides(cfg)
	return cfg, nil
}

// applyOverrides copies command-line overrides into cfg.
func applyOverrides(cfg *types.Config) {
	if directoryFlag != "" {
		cfg.Resolver.Directory = directoryFlag
	}
	if namespaceFlag != "" {
		cfg.Resolver.NamespacePrefix = namespaceFlag
	}
	if len(rootsFlag) > 0 {
		cfg.Resolver.ClassRoots = rootsFlag
	}
}

func buildResolver(cfg *types.Config) *resolver.Resolver {
	return resolver.New(resolver.FromConfig(cfg.Resolver)...)
}

// buildSource returns the storage backend selected by storage.backend.
func buildSource(ctx context.Context, cfg *types.Config) (source.Source, error) {
	if cfg.Storage.Backend != types.BackendS3 {
		return source.NewLocal(), nil
	}

	client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}
	return source.NewS3(client, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix), nil
}

// resolveName computes the candidates for name and, when src is non-nil,
// probes each one.
func resolveName(ctx context.Context, res *resolver.Resolver, src source.Source, name string) (types.Resolution, error) {
	r := types.Resolution{
		Name:       name,
		NeedsLoad:  res.NeedsLoad(name, nil),
		Candidates: []types.CandidateStatus{},
	}
	if !r.NeedsLoad {
		return r, nil
	}

	for _, c := range res.Candidates(name) {
		status := types.CandidateStatus{Candidate: c}
		if src != nil {
			exists, err := src.Exists(ctx, c.Path)
			if err != nil {
				return r, fmt.Errorf("probing %s: %w", c.Path, err)
			}
			status.Exists = exists
		}
		r.Candidates = append(r.Candidates, status)
	}
	return r, nil
}

// scanFiles lists source files from the configured backend.
func scanFiles(ctx context.Context, cfg *types.Config) ([]types.SourceFile, error) {
	rc := cfg.Resolver

	if cfg.Storage.Backend != types.BackendS3 {
		files, err := discover.DiscoverLocal(rc.Directory, rc.ClassRoots, rc.Extension)
		if err != nil {
			return nil, fmt.Errorf("discovering local files: %w", err)
		}
		return files, nil
	}

	client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}

	base := source.NewS3(client, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix).Key(rc.Directory)
	files, err := discover.DiscoverRemote(ctx, client, cfg.Storage.S3.Bucket, base, rc.ClassRoots, rc.Extension)
	if err != nil {
		return nil, fmt.Errorf("discovering remote files: %w", err)
	}
	return files, nil
}

// newLogger returns a development logger in debug mode and a no-op
// logger otherwise.
func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func printWelcomeMessage(configPath string) {
	fmt.Println("Welcome to nsload!")
	fmt.Println()
	fmt.Printf("A starter configuration file has been created at:\n")
	fmt.Printf("  %s\n", configPath)
	fmt.Println()
	fmt.Println("Please edit this file and configure:")
	fmt.Println("  1. resolver.namespace_prefix - The namespace your files belong to")
	fmt.Println("     (or resolver.namespace_from - a file declaring that namespace)")
	fmt.Println("  2. resolver.class_roots - Directories searched for class files")
	fmt.Println()
	fmt.Println("To load files from S3-compatible storage:")
	fmt.Println("  - Set storage.backend: s3 with storage.s3.bucket and storage.s3.region")
	fmt.Println("  - Set auth.profile (or use static credentials)")
	fmt.Println()
	fmt.Println("After configuration, run:")
	fmt.Println("  nsload doctor             # Validate configuration")
	fmt.Println("  nsload scan               # List source files")
	fmt.Println("  nsload resolve 'Ns\\Name'  # Show candidate files")
	fmt.Println("  nsload load 'Ns\\Name'     # Load the first existing candidate")
}
