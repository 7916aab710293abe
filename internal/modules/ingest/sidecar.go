package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/velasier/paperbase/internal/models"
	"gorm.io/datatypes"
)

const sidecarFilename = "analysis_summary.json"

type sidecarPayload struct {
	EntryID         string                     `json:"entry_id"`
	Title           string                     `json:"title"`
	Authors         []string                   `json:"authors"`
	Published       string                     `json:"published"`
	PDFURL          string                     `json:"pdf_url"`
	OriginalSummary string                     `json:"original_summary"`
	Analyses        map[string]json.RawMessage `json:"analyses"`
}

// writeSidecar drops a human-readable JSON snapshot of the article and its
// analyses next to the downloaded artifacts, so the storage folder is useful
// on its own.
func writeSidecar(paperDir string, article *models.ArticleModel, authors []string, analyses map[models.AnalysisKind]datatypes.JSON) error {
	payload := sidecarPayload{
		EntryID:         article.EntryID,
		Title:           article.Title,
		Authors:         authors,
		Published:       article.Published.Format("2006-01-02"),
		PDFURL:          article.PDFURL,
		OriginalSummary: article.OriginalSummary,
		Analyses:        map[string]json.RawMessage{},
	}
	for kind, content := range analyses {
		payload.Analyses[string(kind)] = json.RawMessage(content)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(paperDir, sidecarFilename), data, 0o644)
}
