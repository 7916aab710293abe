package models

import "gorm.io/datatypes"

// AnalysisKind tags an AI annotation as the short or the long-form variant.
type AnalysisKind string

const (
	AnalysisSummary  AnalysisKind = "summary"
	AnalysisDetailed AnalysisKind = "detailed"
)

// AnalysisModel is one AI-generated annotation of an article. There is no
// uniqueness constraint on (article_id, kind); the regenerate path deletes
// old rows before writing new ones, so at most one row per kind exists in
// normal operation.
type AnalysisModel struct {
	Base
	ArticleID string         `json:"-"       gorm:"type:char(36);index;not null"`
	Kind      AnalysisKind   `json:"kind"    gorm:"size:50;not null"`
	Content   datatypes.JSON `json:"content" gorm:"type:json"`
}

func (AnalysisModel) TableName() string { return "analyses" }
