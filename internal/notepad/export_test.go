package notepad

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
)

func exportTestNotepad() *model.Notepad {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Notepad{
		Code: "happy-panda-42",
		Entries: []model.Entry{
			{Text: "first entry", Timestamp: ts},
			{Text: "second entry", Timestamp: ts.Add(time.Minute)},
		},
	}
}

// TestExport_Text はテキスト形式のエクスポートを検証する。
func TestExport_Text(t *testing.T) {
	result, err := Export(exportTestNotepad(), ExportFormatText)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if result.Filename != "happy-panda-42.txt" {
		t.Errorf("Filename = %q, want %q", result.Filename, "happy-panda-42.txt")
	}
	if result.ContentType != "text/plain; charset=utf-8" {
		t.Errorf("ContentType = %q", result.ContentType)
	}
	body := string(result.Data)
	if !strings.Contains(body, "first entry") || !strings.Contains(body, "second entry") {
		t.Errorf("body missing entries: %q", body)
	}
	if !strings.Contains(body, "---") {
		t.Errorf("body missing entry separator: %q", body)
	}
}

// TestExport_JSON はJSON形式のエクスポートを検証する。
func TestExport_JSON(t *testing.T) {
	result, err := Export(exportTestNotepad(), ExportFormatJSON)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if result.Filename != "happy-panda-42.json" {
		t.Errorf("Filename = %q, want %q", result.Filename, "happy-panda-42.json")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(result.Data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc["code"] != "happy-panda-42" {
		t.Errorf("code = %v, want %q", doc["code"], "happy-panda-42")
	}
	if doc["entry_count"] != float64(2) {
		t.Errorf("entry_count = %v, want 2", doc["entry_count"])
	}
	entries, ok := doc["entries"].([]interface{})
	if !ok || len(entries) != 2 {
		t.Fatalf("entries = %v, want 2 items", doc["entries"])
	}
}

// TestExport_Markdown はMarkdown形式のエクスポートを検証する。
func TestExport_Markdown(t *testing.T) {
	result, err := Export(exportTestNotepad(), ExportFormatMarkdown)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if result.Filename != "happy-panda-42.md" {
		t.Errorf("Filename = %q, want %q", result.Filename, "happy-panda-42.md")
	}
	body := string(result.Data)
	if !strings.HasPrefix(body, "# happy-panda-42") {
		t.Errorf("body should start with code heading: %q", body)
	}
	if !strings.Contains(body, "## 2025-06-01T12:00:00Z") {
		t.Errorf("body missing timestamp heading: %q", body)
	}
}

// TestExport_UnknownFormat は未対応形式が検証エラーになることを検証する。
func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(exportTestNotepad(), ExportFormat("pdf"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

// TestValidExportFormat は対応形式の判定を検証する。
func TestValidExportFormat(t *testing.T) {
	for _, f := range []ExportFormat{ExportFormatText, ExportFormatJSON, ExportFormatMarkdown} {
		if !ValidExportFormat(f) {
			t.Errorf("ValidExportFormat(%q) = false, want true", f)
		}
	}
	if ValidExportFormat("xml") {
		t.Error("ValidExportFormat(\"xml\") = true, want false")
	}
}
