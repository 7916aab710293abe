package keyword

import (
	"context"
	"errors"
	"strings"

	"github.com/velasier/paperbase/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyKeyword = errors.New("keyword is required")
	ErrNotFound     = errors.New("keyword not found")
)

// Service manages a user's tracked keyword set.
type Service struct {
	db *gorm.DB
}

// NewService creates a keyword service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the user's keywords in insertion order.
func (s *Service) List(ctx context.Context, userID string) ([]models.KeywordModel, error) {
	var keywords []models.KeywordModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&keywords).Error
	return keywords, err
}

// Add stores a keyword for the user. Adding an existing keyword is a no-op;
// the stored row is returned either way.
func (s *Service) Add(ctx context.Context, userID, raw string) (*models.KeywordModel, error) {
	keyword := strings.TrimSpace(raw)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	row := models.KeywordModel{Keyword: keyword, UserID: userID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}

	// A conflict no-op leaves row.ID empty; read back the persisted one.
	var stored models.KeywordModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND keyword = ?", userID, keyword).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Remove deletes one of the user's keywords by its text.
func (s *Service) Remove(ctx context.Context, userID, raw string) error {
	keyword := strings.TrimSpace(raw)
	if keyword == "" {
		return ErrEmptyKeyword
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND keyword = ?", userID, keyword).
		Delete(&models.KeywordModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
