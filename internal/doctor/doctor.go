package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/13rac1/nsload/internal/discover"
	"github.com/13rac1/nsload/internal/types"
)

const (
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// placeholderNamespace is the value written by the starter config.
const placeholderNamespace = `YOUR\Namespace`

func checkmark() string {
	return colorGreen + "✓" + colorReset
}

func crossmark() string {
	return colorRed + "✗" + colorReset
}

func warnmark() string {
	return colorYellow + "!" + colorReset
}

// RunChecks performs all doctor checks and returns whether all passed.
// A missing class root is a warning, not a failure.
func RunChecks(cfg *types.Config, configPath string) bool {
	fmt.Println("nsload doctor - Configuration and class root check")
	fmt.Println()

	allPassed := checkConfig(cfg, configPath)
	fmt.Println()

	if cfg.Storage.Backend == types.BackendS3 {
		if !checkS3(cfg, configPath) {
			allPassed = false
		}
	} else {
		if !checkLocal(cfg) {
			allPassed = false
		}
	}

	fmt.Println()
	printSummary(allPassed)
	return allPassed
}

func checkConfig(cfg *types.Config, configPath string) bool {
	rc := cfg.Resolver
	passed := true

	fmt.Println("Configuration:")
	fmt.Printf("  %s Config file loaded: %s\n", checkmark(), configPath)

	switch rc.NamespacePrefix {
	case "":
		fmt.Printf("  %s Namespace prefix not configured\n", crossmark())
		fmt.Printf("    → Edit %s and set resolver.namespace_prefix or resolver.namespace_from\n", configPath)
		passed = false
	case placeholderNamespace:
		fmt.Printf("  %s Namespace prefix still set to placeholder\n", crossmark())
		fmt.Printf("    → Edit %s and set resolver.namespace_prefix\n", configPath)
		passed = false
	default:
		fmt.Printf("  %s Namespace prefix configured: %s\n", checkmark(), rc.NamespacePrefix)
	}

	fmt.Printf("  %s Candidate order: %s, prefix match: %s\n", checkmark(), rc.Order, rc.PrefixMatch)
	return passed
}

func checkS3(cfg *types.Config, configPath string) bool {
	s3 := cfg.Storage.S3
	passed := true

	fmt.Println("S3 storage:")

	if s3.Bucket == "" {
		fmt.Printf("  %s S3 bucket not configured\n", crossmark())
		fmt.Printf("    → Edit %s and set storage.s3.bucket\n", configPath)
		passed = false
	} else {
		fmt.Printf("  %s S3 bucket configured: %s\n", checkmark(), s3.Bucket)
	}

	if s3.Region == "" {
		fmt.Printf("  %s S3 region not configured\n", crossmark())
		fmt.Printf("    → Edit %s and set storage.s3.region\n", configPath)
		passed = false
	} else {
		fmt.Printf("  %s S3 region configured: %s\n", checkmark(), s3.Region)
	}

	if s3.Prefix == "" {
		fmt.Printf("  %s S3 prefix configured: (empty)\n", checkmark())
	} else {
		fmt.Printf("  %s S3 prefix configured: %s\n", checkmark(), s3.Prefix)
	}

	return passed
}

func checkLocal(cfg *types.Config) bool {
	rc := cfg.Resolver

	fmt.Println("Local filesystem:")

	info, err := os.Stat(rc.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("  %s Directory does not exist: %s\n", crossmark(), rc.Directory)
			fmt.Printf("    → Create the directory or update resolver.directory in config\n")
			return false
		}
		fmt.Printf("  %s Cannot access directory: %s\n", crossmark(), rc.Directory)
		fmt.Printf("    → Error: %v\n", err)
		return false
	}

	if !info.IsDir() {
		fmt.Printf("  %s Not a directory: %s\n", crossmark(), rc.Directory)
		fmt.Printf("    → Ensure resolver.directory points to a directory\n")
		return false
	}

	fmt.Printf("  %s Directory exists: %s\n", checkmark(), rc.Directory)

	passed := true
	var readable []string
	for _, root := range rc.ClassRoots {
		rootPath := filepath.Join(rc.Directory, root)

		if _, err := os.Stat(rootPath); err != nil {
			fmt.Printf("  %s Class root %s not found: %s\n", warnmark(), root, rootPath)
			continue
		}

		if _, err := os.ReadDir(rootPath); err != nil {
			fmt.Printf("  %s Class root %s is not readable\n", crossmark(), root)
			fmt.Printf("    → Error: %v\n", err)
			passed = false
			continue
		}

		readable = append(readable, root)
	}

	if len(readable) == 0 {
		fmt.Printf("  %s No readable class roots\n", crossmark())
		return false
	}

	files, err := discover.DiscoverLocal(rc.Directory, readable, rc.Extension)
	if err != nil {
		fmt.Printf("  %s Failed to scan class roots: %v\n", crossmark(), err)
		return false
	}

	counts := make(map[string]int, len(readable))
	for _, f := range files {
		counts[f.Root]++
	}

	for _, root := range readable {
		fileWord := "files"
		if counts[root] == 1 {
			fileWord = "file"
		}
		fmt.Printf("  %s Class root %s: %d %s %s\n", checkmark(), root, counts[root], rc.Extension, fileWord)
	}

	return passed
}

func printSummary(allPassed bool) {
	if allPassed {
		fmt.Println("All checks passed! Ready to use nsload.")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
}
