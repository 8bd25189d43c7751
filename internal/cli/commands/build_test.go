package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestNewBuildCommand(t *testing.T) {
	cmd := NewBuildCommand()

	if cmd.Use != "build [file]" {
		t.Errorf("expected Use to be 'build [file]', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	for _, flag := range []string{"json", "output", "package", "rational"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
}

func TestRunBuild_Success(t *testing.T) {
	dir := setupProject(t, "build:\n  package: physics\n", testUnits)

	out, _, err := execute(t, "build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Build successful") {
		t.Errorf("expected success message, got:\n%s", out)
	}

	for _, name := range []string{"dimension.go", "quantity.go", "dimensions.go", "units.go", "constants.go"} {
		path := filepath.Join(dir, "build", "generated", name)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("expected %s to be generated: %v", name, err)
			continue
		}
		if !strings.Contains(string(content), "package physics") {
			t.Errorf("expected %s to declare package physics", name)
		}
	}
}

func TestRunBuild_FlagsOverrideConfig(t *testing.T) {
	dir := setupProject(t, "", testUnits)
	if err := os.WriteFile(filepath.Join(dir, "extra.dim"), []byte(testUnits), 0644); err != nil {
		t.Fatalf("failed to write extra.dim: %v", err)
	}

	if _, _, err := execute(t, "build", "extra.dim", "--output", "gen", "--package", "extra"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "gen", "units.go"))
	if err != nil {
		t.Fatalf("expected gen/units.go: %v", err)
	}
	if !strings.Contains(string(content), "package extra") {
		t.Error("expected the --package flag to name the generated package")
	}
}

func TestRunBuild_JSON(t *testing.T) {
	setupProject(t, "", testUnits)

	out, _, err := execute(t, "build", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result buildResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result.Status != "success" {
		t.Errorf("expected status success, got %s", result.Status)
	}
	if len(result.Files) != 5 {
		t.Errorf("expected 5 generated files, got %v", result.Files)
	}
	if result.OutputDir != filepath.Join("build", "generated") {
		t.Errorf("unexpected output dir %s", result.OutputDir)
	}
}

func TestRunBuild_Diagnostics(t *testing.T) {
	setupProject(t, "", testUnits+"unit feet = 0.3048 * meterz\n")

	out, _, err := execute(t, "build", "--json")
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if !strings.Contains(err.Error(), "1 error(s)") {
		t.Errorf("unexpected error: %v", err)
	}

	var report struct {
		Status string `json:"status"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("expected JSON diagnostics, got %q: %v", out, err)
	}
	if report.Status != "error" || len(report.Errors) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !strings.Contains(report.Errors[0].Message, "meterz") {
		t.Errorf("expected the diagnostic to name meterz, got %q", report.Errors[0].Message)
	}

	if _, err := os.Stat(filepath.Join("build", "generated")); !os.IsNotExist(err) {
		t.Error("expected no output to be written for a failed build")
	}
}

func TestRunBuild_TerminalDiagnostics(t *testing.T) {
	setupProject(t, "", "dimension Length\nunit feet = 2 * furlongs\n")

	_, errOut, err := execute(t, "build")
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if !strings.Contains(errOut, "furlongs") {
		t.Errorf("expected the diagnostic on stderr, got:\n%s", errOut)
	}
}

func TestRunBuild_MissingSource(t *testing.T) {
	chdir(t, t.TempDir())

	if _, _, err := execute(t, "build"); err == nil {
		t.Error("expected an error when units.dim does not exist")
	}
}

func TestRunBuild_InvalidConfig(t *testing.T) {
	setupProject(t, "build:\n  package: not-a-package\n", testUnits)

	_, errOut, err := execute(t, "build")
	if err == nil {
		t.Fatal("expected an error for an invalid package name")
	}
	if errOut == "" {
		t.Error("expected the configuration error on stderr")
	}
}

func TestRunBuild_WatchRejectsJSON(t *testing.T) {
	setupProject(t, "", testUnits)

	_, _, err := execute(t, "build", "--watch", "--json")
	if err == nil || !strings.Contains(err.Error(), "--watch") {
		t.Errorf("expected --watch and --json to conflict, got %v", err)
	}
}

func TestWatchBuild_RebuildsOnChange(t *testing.T) {
	dir := setupProject(t, "", testUnits)
	generated := filepath.Join(dir, "build", "generated", "units.go")

	var out, errOut bytes.Buffer
	cmd := NewBuildCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	color.NoColor = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchBuild(ctx, cmd, nil) }()

	waitFor := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				cancel()
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
	contains := func(path, text string) func() bool {
		return func() bool {
			content, err := os.ReadFile(path)
			return err == nil && strings.Contains(string(content), text)
		}
	}

	waitFor("the initial build", contains(generated, "Meters"))
	// Give the watcher time to register before changing the file
	time.Sleep(200 * time.Millisecond)

	source := testUnits + "unit feet = 0.3048 * meters\n"
	if err := os.WriteFile(filepath.Join(dir, "units.dim"), []byte(source), 0644); err != nil {
		t.Fatalf("failed to update units.dim: %v", err)
	}
	waitFor("the rebuild", contains(generated, "Feet"))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchBuild did not stop after cancel")
	}
}
