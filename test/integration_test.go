// ABOUTME: Integration tests for workwell CLI.
// ABOUTME: Tests the full ingest, report and export workflow against the built binary.
package test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const cgmExport = `Glucose Data,Generated on,01-10-2024 09:00
Device,Serial Number
Device,Serial Number,Device Timestamp,Record Type,Historic Glucose mg/dL
Reader,SN1,01-03-2024 08:00,0,62
Reader,SN1,01-03-2024 08:15,0,110
Reader,SN1,01-03-2024 08:30,0,
Reader,SN1,01-03-2024 08:45,0,200
Reader,SN1,01-04-2024 08:00,0,150
`

const fileSummary = `pid,filename,file_device_id,file_size,file_start_time,file_end_time,wear_time_overall_days,non_wear_time_overall_days,good_calibration
p01,/raw/p01.bin,D1,1048576,2024-01-03T08:00:00+00:00[UTC],2024-01-09T08:00:00+00:00[UTC],6,1,TRUE
p02,/raw/p02.bin,D2,3145728,2024-01-03T08:00:00+00:00[UTC],2024-01-07T08:00:00+00:00[UTC],4,3,FALSE
`

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(t.TempDir(), "workwell")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/workwell")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	// Use temp config and data directories
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	cgmDir := filepath.Join(tmpDir, "cgm")
	if err := os.MkdirAll(cgmDir, 0750); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(cgmDir, "p01_baseline.csv"), cgmExport)
	writeFile(t, filepath.Join(tmpDir, "file_summary.csv"), fileSummary)

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...)
		cmd := exec.Command(binary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"), "WORKWELL_CACHE=badger")
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Test ingest
	output, err := run("ingest", "cgm", cgmDir)
	if err != nil {
		t.Fatalf("Failed to ingest CGM: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Ingested 4 rows from 1 file") {
		t.Errorf("Expected ingest summary in output, got: %s", output)
	}

	output, err = run("ingest", "files", filepath.Join(tmpDir, "file_summary.csv"))
	if err != nil {
		t.Fatalf("Failed to ingest file summary: %v\n%s", err, output)
	}

	// Test participants
	output, err = run("participants")
	if err != nil {
		t.Fatalf("Failed to list participants: %v\n%s", err, output)
	}
	if !strings.Contains(output, "p01") || !strings.Contains(output, "p02") {
		t.Errorf("Expected both participants in output, got: %s", output)
	}

	// Test report
	reportPath := filepath.Join(tmpDir, "tir.json")
	output, err = run("report", "participant-time-in-ranges", "-o", reportPath)
	if err != nil {
		t.Fatalf("Failed to report: %v\n%s", err, output)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var tir []struct {
		PID      string  `json:"pid"`
		Readings int     `json:"readings"`
		Low      float64 `json:"low"`
		Target   float64 `json:"target"`
	}
	if err := json.Unmarshal(data, &tir); err != nil {
		t.Fatalf("Invalid report JSON: %v\n%s", err, data)
	}
	if len(tir) != 1 || tir[0].PID != "p01" || tir[0].Readings != 4 {
		t.Fatalf("Unexpected time in range: %+v", tir)
	}
	if tir[0].Low != 25 || tir[0].Target != 50 {
		t.Errorf("Expected 25%% low and 50%% target, got %+v", tir[0])
	}

	// Test markdown export
	output, err = run("export", "markdown")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	for _, want := range []string{"# Cohort Report", "Participants: 2"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in export, got: %s", want, output)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
