package article

import (
	"encoding/json"
	"time"
)

// ListItem is one row of the library listing.
type ListItem struct {
	ID              string          `json:"id"`
	EntryID         string          `json:"entry_id"`
	Title           string          `json:"title"`
	Authors         []string        `json:"authors"`
	Published       string          `json:"published"`
	IsFavorited     bool            `json:"is_favorited"`
	SummaryAnalysis json.RawMessage `json:"summary_analysis,omitempty"`
}

// QnaEntry is one question/answer pair in an article's history.
type QnaEntry struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Created  time.Time `json:"created"`
}

// Detail is the full article view.
type Detail struct {
	ID               string          `json:"id"`
	EntryID          string          `json:"entry_id"`
	Title            string          `json:"title"`
	Authors          []string        `json:"authors"`
	Published        string          `json:"published"`
	PDFURL           string          `json:"pdf_url"`
	OriginalSummary  string          `json:"original_summary"`
	LocalPath        string          `json:"local_path"`
	ImagePaths       []string        `json:"image_paths"`
	IsFavorited      bool            `json:"is_favorited"`
	SummaryAnalysis  json.RawMessage `json:"summary_analysis"`
	DetailedAnalysis json.RawMessage `json:"detailed_analysis"`
	QnaHistory       []QnaEntry      `json:"qna_history"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
