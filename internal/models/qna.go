package models

// QnaHistoryModel is one question/answer exchange about an article.
// Rows are append-only and removed only by article cascade.
type QnaHistoryModel struct {
	Base
	ArticleID string `json:"-"        gorm:"type:char(36);index;not null"`
	Question  string `json:"question" gorm:"type:text;not null"`
	Answer    string `json:"answer"   gorm:"type:text"`
}

func (QnaHistoryModel) TableName() string { return "qna_histories" }
