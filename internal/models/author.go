package models

// AuthorModel is a paper author, deduplicated globally by exact name.
type AuthorModel struct {
	Base
	Name     string         `json:"name" gorm:"size:150;uniqueIndex;not null"`
	Articles []ArticleModel `json:"-"    gorm:"many2many:article_authors"`
}

func (AuthorModel) TableName() string { return "authors" }
