package notepad

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
)

// ExportFormat はエクスポート形式。
type ExportFormat string

const (
	ExportFormatText     ExportFormat = "txt"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatMarkdown ExportFormat = "md"
)

// ValidExportFormat は形式が対応済みかを返す。
func ValidExportFormat(f ExportFormat) bool {
	switch f {
	case ExportFormatText, ExportFormatJSON, ExportFormatMarkdown:
		return true
	}
	return false
}

// ExportResult はエクスポート結果。ハンドラはこれをそのままダウンロード応答にする。
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export はノートパッドを指定形式でエクスポートする。
// ファイル名は「コード.拡張子」。
func Export(n *model.Notepad, format ExportFormat) (*ExportResult, error) {
	switch format {
	case ExportFormatText:
		return &ExportResult{
			Filename:    n.Code + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(exportText(n)),
		}, nil
	case ExportFormatJSON:
		data, err := exportJSON(n)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Filename:    n.Code + ".json",
			ContentType: "application/json",
			Data:        data,
		}, nil
	case ExportFormatMarkdown:
		return &ExportResult{
			Filename:    n.Code + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(exportMarkdown(n)),
		}, nil
	default:
		return nil, model.NewValidationError(fmt.Sprintf("未対応のエクスポート形式です: %s", format))
	}
}

func exportText(n *model.Notepad) string {
	var b strings.Builder
	for i, e := range n.Entries {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return b.String()
}

type exportEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type exportDoc struct {
	Code       string        `json:"code"`
	EntryCount int           `json:"entry_count"`
	ExportedAt time.Time     `json:"exported_at"`
	Entries    []exportEntry `json:"entries"`
}

func exportJSON(n *model.Notepad) ([]byte, error) {
	doc := exportDoc{
		Code:       n.Code,
		EntryCount: len(n.Entries),
		ExportedAt: time.Now().UTC(),
		Entries:    make([]exportEntry, len(n.Entries)),
	}
	for i, e := range n.Entries {
		doc.Entries[i] = exportEntry{Text: e.Text, Timestamp: e.Timestamp}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("エクスポートのJSON変換に失敗しました: %w", err)
	}
	return data, nil
}

func exportMarkdown(n *model.Notepad) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Code)
	for _, e := range n.Entries {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", e.Timestamp.UTC().Format(time.RFC3339), e.Text)
	}
	return b.String()
}
