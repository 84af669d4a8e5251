package test

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestV100_CLISurface builds the CLI and checks the 1.0.0 release
// contract: the version stamp is correct and every shipped subcommand
// is wired into the root command.
func TestV100_CLISurface(t *testing.T) {
	// 1. Build the latest CLI binary
	// We build it to a temp location to avoid messing with the user's install
	tmpBin := "./talus_test_bin"
	buildCmd := exec.Command("go", "build", "-o", tmpBin, "../../cmd/talus")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, string(output))
	}
	defer os.Remove(tmpBin) // Cleanup binary

	cfgPath := filepath.Join(t.TempDir(), "talus.yaml")

	// 2. Version stamp
	out, err := exec.Command(tmpBin, "version", "--config", cfgPath).CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "talus version 1.0.0") {
		t.Errorf("FAIL: wrong version stamp: %s", out)
	}

	// 3. Help lists every shipped command
	helpOut, err := exec.Command(tmpBin, "--help").CombinedOutput()
	if err != nil {
		t.Fatalf("--help failed: %v\n%s", err, helpOut)
	}
	for _, sub := range []string{"analyze", "validate", "graph", "serve", "version"} {
		if !strings.Contains(string(helpOut), sub) {
			t.Errorf("FAIL: --help does not list the %q command", sub)
		}
	}
}

// TestV100_AnalyzeSmoke runs a real analysis through the built binary
// and checks the canonical two-cut-set model comes back right.
func TestV100_AnalyzeSmoke(t *testing.T) {
	// 1. Build the latest CLI binary
	tmpBin := "./talus_smoke_bin"
	buildCmd := exec.Command("go", "build", "-o", tmpBin, "../../cmd/talus")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, string(output))
	}
	defer os.Remove(tmpBin)

	// 2. Create the model fixture
	tempDir := t.TempDir()
	modelPath := filepath.Join(tempDir, "pump.yaml")
	model := "name: pump-train\ntop: TOP\nbasic-events: [A, B, C]\ngates:\n  TOP: {or: [A, G1]}\n  G1: {and: [B, C]}\n"
	if err := os.WriteFile(modelPath, []byte(model), 0644); err != nil {
		t.Fatalf("Failed to create model fixture: %v", err)
	}

	// 3. Run the analysis
	cfgPath := filepath.Join(tempDir, "talus.yaml")
	cmd := exec.Command(tmpBin, "analyze", modelPath, "--format", "json", "--config", cfgPath)

	// Set a timeout to prevent hanging if the run breaks
	timer := time.AfterFunc(60*time.Second, func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	})
	defer timer.Stop()

	outputBytes, err := cmd.Output()
	if err != nil {
		t.Fatalf("CLI command failed: %v", err)
	}

	// 4. Assertions
	var rep struct {
		Products []struct {
			Literals []string `json:"literals"`
		} `json:"products"`
	}
	if err := json.Unmarshal(outputBytes, &rep); err != nil {
		t.Fatalf("FAIL: analyze did not emit a JSON report: %v\n%s", err, outputBytes)
	}

	got := make([]string, len(rep.Products))
	for i, p := range rep.Products {
		got[i] = strings.Join(p.Literals, ",")
	}
	want := []string{"A", "B,C"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("FAIL: cut sets = %v, want %v", got, want)
	} else {
		t.Log("SUCCESS: analysis produced the expected minimal cut sets.")
	}
}
