package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Source != "units.dim" {
		t.Errorf("expected default source 'units.dim', got %s", cfg.Source)
	}
	if cfg.Build.OutputDir != "build/generated" {
		t.Errorf("expected default output dir 'build/generated', got %s", cfg.Build.OutputDir)
	}
	if cfg.Build.Package != "units" {
		t.Errorf("expected default package 'units', got %s", cfg.Build.Package)
	}
	if cfg.Build.RationalExponents {
		t.Error("expected rational exponents to be off by default")
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	configContent := `
source: defs/si.dim
build:
  output_dir: pkg/units
  package: si
  rational_exponents: true
`
	if err := os.WriteFile(filepath.Join(dir, "dimc.yml"), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Build.Package != "si" {
		t.Errorf("expected package 'si', got %s", cfg.Build.Package)
	}
	if !cfg.Build.RationalExponents {
		t.Error("expected rational exponents to be enabled")
	}
	if cfg.SourcePath() != filepath.Join(dir, "defs", "si.dim") {
		t.Errorf("expected source resolved against the project, got %s", cfg.SourcePath())
	}
	if cfg.OutputPath() != filepath.Join(dir, "pkg", "units") {
		t.Errorf("expected output resolved against the project, got %s", cfg.OutputPath())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "dimc.yaml"), []byte("build:\n  package: si\n"), 0644)
	t.Setenv("DIMC_BUILD_PACKAGE", "physics")
	t.Setenv("DIMC_BUILD_RATIONAL_EXPONENTS", "true")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Build.Package != "physics" {
		t.Errorf("expected DIMC_BUILD_PACKAGE to win, got %s", cfg.Build.Package)
	}
	if !cfg.Build.RationalExponents {
		t.Error("expected DIMC_BUILD_RATIONAL_EXPONENTS to enable rational exponents")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"upper-case package", "build:\n  package: Units\n", "build.package"},
		{"invalid identifier", "build:\n  package: my-units\n", "build.package"},
		{"empty source", "source: ''\n", "source"},
		{"empty output", "build:\n  output_dir: ' '\n", "build.output_dir"},
		{"malformed yaml", "build: [\n", "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			os.WriteFile(filepath.Join(dir, "dimc.yml"), []byte(tt.content), 0644)

			_, err := LoadFrom(dir)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestInProject(t *testing.T) {
	chdir(t, t.TempDir())

	if InProject() {
		t.Error("expected InProject to return false in non-project directory")
	}

	os.WriteFile("dimc.yml", []byte(""), 0644)

	if !InProject() {
		t.Error("expected InProject to return true in project directory")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "dimc.yml"), []byte(""), 0644)

	subDir := filepath.Join(tmpDir, "defs", "deep")
	os.MkdirAll(subDir, 0755)

	root, err := FindProjectRoot(subDir)
	if err != nil {
		t.Fatalf("expected to find project root, got error: %v", err)
	}

	// On macOS, /tmp is symlinked to /private/tmp, so resolve both paths
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)
	if resolvedRoot != resolvedTmpDir {
		t.Errorf("expected project root to be %s, got %s", resolvedTmpDir, resolvedRoot)
	}
}

func TestFindProjectRootNotInProject(t *testing.T) {
	if _, err := FindProjectRoot(t.TempDir()); err == nil {
		t.Error("expected error when not in a project, got nil")
	}
}
