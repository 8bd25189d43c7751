package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	testBinary     string
	testBinaryOnce sync.Once
	testBinaryErr  error
)

// buildTestBinary builds the dimc binary once for all tests
func buildTestBinary(t *testing.T) string {
	t.Helper()
	testBinaryOnce.Do(func() {
		tmpBinary := filepath.Join(os.TempDir(), "dimc-test")
		cmd := exec.Command("go", "build", "-o", tmpBinary, ".")
		if out, err := cmd.CombinedOutput(); err != nil {
			testBinaryErr = err
			testBinary = string(out)
			return
		}
		testBinary = tmpBinary
	})

	if testBinaryErr != nil {
		t.Fatalf("failed to build test binary: %v\n%s", testBinaryErr, testBinary)
	}
	return testBinary
}

// run executes the binary in dir and returns its combined output
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(buildTestBinary(t), append([]string{"--no-color"}, args...)...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, output)
	}

	for _, exp := range []string{"dimc version:", "Git commit:", "Build date:", "Go version:"} {
		if !strings.Contains(output, exp) {
			t.Errorf("expected output to contain %q, got: %s", exp, output)
		}
	}
}

func TestNewThenBuild(t *testing.T) {
	tmpDir := t.TempDir()

	output, err := run(t, tmpDir, "new", "physics")
	if err != nil {
		t.Fatalf("new command failed: %v\nOutput: %s", err, output)
	}

	projectDir := filepath.Join(tmpDir, "physics")
	output, err = run(t, projectDir, "build")
	if err != nil {
		t.Fatalf("build command failed: %v\nOutput: %s", err, output)
	}

	if _, err := os.Stat(filepath.Join(projectDir, "build", "generated", "units.go")); err != nil {
		t.Errorf("expected generated units.go: %v", err)
	}

	output, err = run(t, projectDir, "check", "kilograms")
	if err != nil {
		t.Fatalf("check command failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "kilograms") {
		t.Errorf("expected kilograms in the check output, got: %s", output)
	}
}

func TestNewCommandExistingDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, "existing"), 0755); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, tmpDir, "new", "existing")
	if err == nil {
		t.Fatal("expected new to fail for an existing directory")
	}
	if !strings.Contains(output, "already exists") {
		t.Errorf("expected 'already exists' in output, got: %s", output)
	}
}

func TestBuildCommandWithError(t *testing.T) {
	tmpDir := t.TempDir()
	source := "dimension Length\n@base(Length)\nunit meters\nunit feet = 0.3048 * meterz\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "units.dim"), []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, tmpDir, "build")
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(output, "meterz") {
		t.Errorf("expected the unknown name in the output, got: %s", output)
	}

	output, _ = run(t, tmpDir, "build", "--json")
	start := strings.Index(output, "{")
	if start < 0 {
		t.Fatalf("expected JSON in output, got: %s", output)
	}
	var report map[string]interface{}
	if err := json.NewDecoder(strings.NewReader(output[start:])).Decode(&report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if report["status"] != "error" {
		t.Errorf("expected status error, got %v", report["status"])
	}
}
