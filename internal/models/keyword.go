package models

// KeywordModel is a search term scoped to one user.
// The same text may exist for different owners, but only once per owner.
type KeywordModel struct {
	Base
	Keyword string `json:"keyword" gorm:"size:100;not null;uniqueIndex:idx_keyword_owner"`
	UserID  string `json:"-"       gorm:"type:char(36);not null;uniqueIndex:idx_keyword_owner"`
}

func (KeywordModel) TableName() string { return "keywords" }
