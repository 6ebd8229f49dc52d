package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofhir/expander/pkg/expand"
	"github.com/gofhir/expander/pkg/resource"
)

func writeResult(t *testing.T) (*expand.Result, string) {
	t.Helper()
	inputDir := t.TempDir()

	originPath := filepath.Join(inputDir, "profiles", "my-patient.json")
	if err := os.MkdirAll(filepath.Dir(originPath), 0o755); err != nil {
		t.Fatal(err)
	}
	originBody := `{"resourceType": "StructureDefinition", "id": "my-patient"}`
	if err := os.WriteFile(originPath, []byte(originBody), 0o644); err != nil {
		t.Fatal(err)
	}

	sd, err := resource.Parse([]byte(originBody), originPath)
	if err != nil {
		t.Fatal(err)
	}
	sd.Rel = filepath.Join("profiles", "my-patient.json")

	inMemory, err := resource.FromMap(map[string]any{
		"resourceType": "ValueSet", "id": "vs1",
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	merged, err := resource.FromMap(map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "root-expanded",
		"url":          "http://example.org/fhir/CapabilityStatement/root-expanded",
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	return &expand.Result{
		Merged:    merged,
		Resources: []*resource.Resource{sd, inMemory},
	}, originBody
}

func TestWrite(t *testing.T) {
	result, originBody := writeResult(t)
	outDir := filepath.Join(t.TempDir(), "out")

	report, err := New(outDir, false).Write(result)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantMerged := filepath.Join(outDir, "CapabilityStatement-root-expanded.json")
	if report.MergedFile != wantMerged {
		t.Errorf("MergedFile = %q, want %q", report.MergedFile, wantMerged)
	}
	if report.Copied != 1 || report.Skipped != 1 {
		t.Errorf("Copied/Skipped = %d/%d, want 1/1", report.Copied, report.Skipped)
	}

	data, err := os.ReadFile(report.MergedFile)
	if err != nil {
		t.Fatalf("read merged file: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("merged file should end with a newline")
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("merged file is not valid JSON: %v", err)
	}
	if doc["id"] != "root-expanded" {
		t.Errorf("merged document id = %v", doc["id"])
	}

	// Copies preserve the relative path and the exact bytes.
	copied, err := os.ReadFile(filepath.Join(outDir, "profiles", "my-patient.json"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(copied) != originBody {
		t.Error("copied file differs from its origin")
	}
}

func TestWriteClean(t *testing.T) {
	result, _ := writeResult(t)
	outDir := t.TempDir()

	stale := filepath.Join(outDir, "stale.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(outDir, true).Write(result); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("clean write kept a stale file")
	}
}

func TestWriteKeepsExistingFilesWithoutClean(t *testing.T) {
	result, _ := writeResult(t)
	outDir := t.TempDir()

	keep := filepath.Join(outDir, "keep.json")
	if err := os.WriteFile(keep, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(outDir, false).Write(result); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("non-clean write removed an existing file: %v", err)
	}
}
