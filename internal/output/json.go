package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/13rac1/nsload/internal/types"
)

// ScanOutput represents the complete JSON output of a scan.
type ScanOutput struct {
	GeneratedAt string             `json:"generatedAt"`
	Config      ConfigInfo         `json:"config"`
	Counts      map[string]int     `json:"counts"`
	Files       []types.SourceFile `json:"files"`
}

// ConfigInfo holds configuration details for JSON output.
type ConfigInfo struct {
	Directory       string   `json:"directory"`
	NamespacePrefix string   `json:"namespacePrefix"`
	ClassRoots      []string `json:"classRoots"`
	Backend         string   `json:"backend"`
	Bucket          string   `json:"bucket,omitempty"`
	Prefix          string   `json:"prefix,omitempty"`
	Endpoint        string   `json:"endpoint,omitempty"`
}

// PrintScanJSON formats and prints scan results as JSON to stdout.
func PrintScanJSON(files []types.SourceFile, cfg *types.Config) error {
	if files == nil {
		files = []types.SourceFile{}
	}

	output := ScanOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Config:      buildConfigInfo(cfg),
		Counts:      CountByRoot(files),
		Files:       files,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	fmt.Println(string(data))
	return nil
}

// buildConfigInfo extracts config information for JSON output.
func buildConfigInfo(cfg *types.Config) ConfigInfo {
	info := ConfigInfo{
		Directory:       cfg.Resolver.Directory,
		NamespacePrefix: cfg.Resolver.NamespacePrefix,
		ClassRoots:      cfg.Resolver.ClassRoots,
		Backend:         cfg.Storage.Backend,
	}
	if cfg.Storage.Backend == types.BackendS3 {
		info.Bucket = cfg.Storage.S3.Bucket
		info.Prefix = cfg.Storage.S3.Prefix
		info.Endpoint = cfg.Storage.S3.Endpoint
	}
	return info
}
