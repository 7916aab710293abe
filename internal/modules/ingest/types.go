package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/velasier/paperbase/internal/models"
	"github.com/velasier/paperbase/internal/modules/arxiv"
	"gorm.io/datatypes"
)

// PaperSource is the slice of the paper repository client the workflow needs.
// Implemented by *arxiv.Client.
type PaperSource interface {
	Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error)
	SearchByIDs(ctx context.Context, ids []string) ([]arxiv.Paper, error)
	FetchPDF(ctx context.Context, p arxiv.Paper, dir, filename string) (string, error)
	FetchSourceArchive(ctx context.Context, p arxiv.Paper, dir string) (string, error)
}

// Analyzer produces AI annotations. Implemented by *ai.Client.
type Analyzer interface {
	StructuredAnalyze(ctx context.Context, kind models.AnalysisKind, abstract, apiKeyOverride string) datatypes.JSON
}

// SearchResult is one preview row for the ad-hoc search endpoint.
type SearchResult struct {
	EntryID   string   `json:"entry_id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Published string   `json:"published"`
	Summary   string   `json:"summary"`
	PDFURL    string   `json:"pdf_url"`
	Imported  bool     `json:"imported"`
}

const maxTitleLen = 80

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeTitle strips filesystem-unsafe characters from a title and bounds
// its length so artifact folders stay browsable.
func SanitizeTitle(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	runes := []rune(cleaned)
	if len(runes) > maxTitleLen {
		cleaned = string(runes[:maxTitleLen])
	}
	return strings.TrimSpace(cleaned)
}

// NormalizeEntryID accepts a bare external id or a full abs URL and returns
// the bare id, e.g. "http://arxiv.org/abs/2401.00001v1" -> "2401.00001v1".
func NormalizeEntryID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimRight(id, "/")
	if strings.Contains(id, "/abs/") {
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}
	}
	return id
}
