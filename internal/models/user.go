package models

import "time"

// UserModel is an account owning keywords and imported articles.
type UserModel struct {
	Base
	Username      string     `json:"username" gorm:"uniqueIndex;not null"`
	Password      string     `json:"-"        gorm:"not null"`
	APIKey        string     `json:"-"        gorm:"column:api_key"` // per-user AI provider key override
	LastLoginTime *time.Time `json:"last_login_time"`
}

func (UserModel) TableName() string { return "users" }
