package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/velasier/paperbase/internal/models"
	sessionpkg "github.com/velasier/paperbase/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("username and password are required")
)

// Service implements account management on top of the users table.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates an auth service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("auth")}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.UserModel, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.UserModel{Username: username, Password: string(hash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique index catches the register race the count check misses.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", username))
	return &user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password, ip, ua string) (string, *models.UserModel, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	var user models.UserModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := sessionpkg.Issue(s.db, user.ID, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).
		Update("last_login_time", &now).Error; err != nil {
		s.logger.Warn("last login update failed", zap.String("username", username), zap.Error(err))
	}
	return token, &user, nil
}

// Logout revokes the backing session so the token stops validating.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	return sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID)
}

// GetUser loads an account by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.UserModel, error) {
	var user models.UserModel
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAPIKey stores the user's personal AI provider key. An empty key
// clears the override so the configured key applies again.
func (s *Service) UpdateAPIKey(ctx context.Context, userID, apiKey string) error {
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Update("api_key", strings.TrimSpace(apiKey)).Error
}

// DeleteAccount removes a user and everything the account owns: sessions,
// keywords, articles with their analyses, Q&A rows, and author join rows.
// Shared author rows survive.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var articles []models.ArticleModel
		if err := tx.Where("user_id = ?", userID).Find(&articles).Error; err != nil {
			return err
		}
		for i := range articles {
			if err := tx.Where("article_id = ?", articles[i].ID).Delete(&models.AnalysisModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("article_id = ?", articles[i].ID).Delete(&models.QnaHistoryModel{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&articles[i]).Association("Authors").Clear(); err != nil {
				return err
			}
			if err := tx.Delete(&articles[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.KeywordModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.UserModel{}, "id = ?", userID).Error
	})
}
