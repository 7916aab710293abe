package models

import "time"

// ArticleModel is one fetched paper. EntryID is the source repository's
// canonical id (full abs URL) and carries the uniqueness constraint that
// guards against duplicate-insert races between the scheduler and manual
// fetches.
type ArticleModel struct {
	Base
	EntryID         string        `json:"entry_id"         gorm:"size:100;uniqueIndex;not null"`
	Title           string        `json:"title"            gorm:"size:500;not null"`
	Published       time.Time     `json:"published"        gorm:"not null;index"`
	PDFURL          string        `json:"pdf_url"          gorm:"size:255"`
	OriginalSummary string        `json:"original_summary" gorm:"type:text"`
	LocalPath       string        `json:"local_path"       gorm:"size:255"`
	ImagePaths      StringArray   `json:"image_paths"      gorm:"type:text"`
	IsFavorited     bool          `json:"is_favorited"     gorm:"default:false"`
	UserID          string        `json:"-"                gorm:"type:char(36);index;not null"`
	Authors         []AuthorModel `json:"authors,omitempty" gorm:"many2many:article_authors"`
}

func (ArticleModel) TableName() string { return "articles" }
