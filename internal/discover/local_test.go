package discover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/13rac1/nsload/internal/types"
)

func TestDiscoverLocal(t *testing.T) {
	tests := []struct {
		name       string
		setupFunc  func(t *testing.T) string // returns base directory
		roots      []string
		wantErr    bool
		wantErrMsg string
		wantCount  int
		validate   func(t *testing.T, files []types.SourceFile)
	}{
		{
			name: "files classified by marker",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				createFile(t, filepath.Join(base, "class-cache.php"))
				createFile(t, filepath.Join(base, "interface-store.php"))
				createFile(t, filepath.Join(base, "trait-loggable.php"))
				createFile(t, filepath.Join(base, "abstract-base.php"))
				createFile(t, filepath.Join(base, "helpers.php"))
				createFile(t, filepath.Join(base, "README.md"))
				return base
			},
			roots:     []string{"."},
			wantCount: 5,
			validate: func(t *testing.T, files []types.SourceFile) {
				want := map[string]types.Marker{
					"abstract-base.php":   types.MarkerAbstract,
					"class-cache.php":     types.MarkerClass,
					"helpers.php":         types.MarkerNone,
					"interface-store.php": types.MarkerInterface,
					"trait-loggable.php":  types.MarkerTrait,
				}
				for _, f := range files {
					if f.Marker != want[f.RelPath] {
						t.Errorf("%s marker = %q, want %q", f.RelPath, f.Marker, want[f.RelPath])
					}
				}
			},
		},
		{
			name: "nested root owns its files",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				mkdir(t, filepath.Join(base, "vendor", "lib"))
				createFile(t, filepath.Join(base, "class-main.php"))
				createFile(t, filepath.Join(base, "vendor", "lib", "class-dep.php"))
				return base
			},
			roots:     []string{".", "vendor"},
			wantCount: 2,
			validate: func(t *testing.T, files []types.SourceFile) {
				if files[0].Root != "." || files[0].RelPath != "class-main.php" {
					t.Errorf("files[0] = %+v, want root . class-main.php", files[0])
				}
				if files[1].Root != "vendor" || files[1].RelPath != filepath.Join("lib", "class-dep.php") {
					t.Errorf("files[1] = %+v, want root vendor lib/class-dep.php", files[1])
				}
			},
		},
		{
			name: "hidden directories skipped",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				mkdir(t, filepath.Join(base, ".git"))
				createFile(t, filepath.Join(base, ".git", "class-hook.php"))
				createFile(t, filepath.Join(base, "class-real.php"))
				return base
			},
			roots:     []string{"."},
			wantCount: 1,
		},
		{
			name: "case insensitive extension",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				createFile(t, filepath.Join(base, "lower.php"))
				createFile(t, filepath.Join(base, "upper.PHP"))
				createFile(t, filepath.Join(base, "mixed.Php"))
				return base
			},
			roots:     []string{"."},
			wantCount: 3,
		},
		{
			name: "missing root skipped",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				createFile(t, filepath.Join(base, "class-a.php"))
				return base
			},
			roots:     []string{".", "vendor"},
			wantCount: 1,
		},
		{
			name: "sorted by root then path",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				mkdir(t, filepath.Join(base, "includes"))
				mkdir(t, filepath.Join(base, "lib"))
				createFile(t, filepath.Join(base, "lib", "class-b.php"))
				createFile(t, filepath.Join(base, "lib", "class-a.php"))
				createFile(t, filepath.Join(base, "includes", "class-z.php"))
				return base
			},
			roots:     []string{"lib", "includes"},
			wantCount: 3,
			validate: func(t *testing.T, files []types.SourceFile) {
				want := []string{"class-z.php", "class-a.php", "class-b.php"}
				for i, name := range want {
					if files[i].RelPath != name {
						t.Errorf("files[%d] = %q, want %q", i, files[i].RelPath, name)
					}
				}
			},
		},
		{
			name: "directory does not exist",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nonexistent")
			},
			roots:      []string{"."},
			wantErr:    true,
			wantErrMsg: "directory does not exist",
		},
		{
			name: "directory is a file",
			setupFunc: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "notadir")
				createFile(t, p)
				return p
			},
			roots:      []string{"."},
			wantErr:    true,
			wantErrMsg: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := tt.setupFunc(t)

			files, err := DiscoverLocal(base, tt.roots, ".php")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.wantErrMsg) {
					t.Errorf("expected error to contain %q, got %q", tt.wantErrMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(files) != tt.wantCount {
				t.Fatalf("expected %d files, got %d: %+v", tt.wantCount, len(files), files)
			}

			if tt.validate != nil {
				tt.validate(t, files)
			}

			for _, f := range files {
				if f.Path == "" || f.RelPath == "" {
					t.Errorf("file has empty path: %+v", f)
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want types.Marker
	}{
		{"class-cache.php", types.MarkerClass},
		{"CLASS-Cache.php", types.MarkerClass},
		{"interface-store.php", types.MarkerInterface},
		{"trait-loggable.php", types.MarkerTrait},
		{"abstract-base.php", types.MarkerAbstract},
		{"/deep/dir/class-x.php", types.MarkerClass},
		{"classic.php", types.MarkerNone},
		{"helpers.php", types.MarkerNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

// createFile creates a small file at the given path.
func createFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("<?php\n"), 0644); err != nil {
		t.Fatalf("failed to create file %s: %v", path, err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}
