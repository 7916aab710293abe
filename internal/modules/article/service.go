package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/velasier/paperbase/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound covers both missing articles and articles owned by someone
// else; callers cannot tell the two apart.
var ErrNotFound = errors.New("article not found")

// Answerer produces grounded answers for the ask endpoint. Implemented by
// *ai.Client.
type Answerer interface {
	AnswerWithContext(ctx context.Context, question, contextText, apiKeyOverride string) string
}

// Service implements the library read/write operations over stored articles.
type Service struct {
	db       *gorm.DB
	answerer Answerer
	logger   *zap.Logger
}

// NewService creates an article service.
func NewService(db *gorm.DB, answerer Answerer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, answerer: answerer, logger: logger.Named("article")}
}

// Get loads an owner-scoped article with its authors.
func (s *Service) Get(ctx context.Context, userID, articleID string) (*models.ArticleModel, error) {
	var article models.ArticleModel
	err := s.db.WithContext(ctx).
		Preload("Authors").
		Where("id = ? AND user_id = ?", articleID, userID).
		First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// ListLatest returns the user's articles, newest publication first.
func (s *Service) ListLatest(ctx context.Context, userID string) ([]ListItem, error) {
	return s.list(ctx, userID, false)
}

// ListFavorites returns the user's favorited articles, newest first.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]ListItem, error) {
	return s.list(ctx, userID, true)
}

func (s *Service) list(ctx context.Context, userID string, favoritesOnly bool) ([]ListItem, error) {
	q := s.db.WithContext(ctx).
		Preload("Authors").
		Where("user_id = ?", userID).
		Order("published DESC")
	if favoritesOnly {
		q = q.Where("is_favorited = ?", true)
	}

	var articles []models.ArticleModel
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}

	summaries, err := s.summaryAnalyses(ctx, articles)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, ListItem{
			ID:              a.ID,
			EntryID:         a.EntryID,
			Title:           a.Title,
			Authors:         authorNames(a.Authors),
			Published:       a.Published.Format("2006-01-02"),
			IsFavorited:     a.IsFavorited,
			SummaryAnalysis: summaries[a.ID],
		})
	}
	return items, nil
}

func (s *Service) summaryAnalyses(ctx context.Context, articles []models.ArticleModel) (map[string]json.RawMessage, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	var rows []models.AnalysisModel
	if err := s.db.WithContext(ctx).
		Where("article_id IN ? AND kind = ?", ids, models.AnalysisSummary).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, r := range rows {
		out[r.ArticleID] = json.RawMessage(r.Content)
	}
	return out, nil
}

// GetDetail aggregates an article with its analyses and Q&A history.
func (s *Service) GetDetail(ctx context.Context, userID, articleID string) (*Detail, error) {
	article, err := s.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}

	var analyses []models.AnalysisModel
	if err := s.db.WithContext(ctx).
		Where("article_id = ?", article.ID).
		Order("created_at ASC").
		Find(&analyses).Error; err != nil {
		return nil, err
	}

	var qna []models.QnaHistoryModel
	if err := s.db.WithContext(ctx).
		Where("article_id = ?", article.ID).
		Order("created_at ASC").
		Find(&qna).Error; err != nil {
		return nil, err
	}

	detail := &Detail{
		ID:              article.ID,
		EntryID:         article.EntryID,
		Title:           article.Title,
		Authors:         authorNames(article.Authors),
		Published:       article.Published.Format("2006-01-02"),
		PDFURL:          article.PDFURL,
		OriginalSummary: article.OriginalSummary,
		LocalPath:       article.LocalPath,
		ImagePaths:      article.ImagePaths,
		IsFavorited:     article.IsFavorited,
		QnaHistory:      make([]QnaEntry, 0, len(qna)),
	}
	for _, a := range analyses {
		switch a.Kind {
		case models.AnalysisSummary:
			detail.SummaryAnalysis = json.RawMessage(a.Content)
		case models.AnalysisDetailed:
			detail.DetailedAnalysis = json.RawMessage(a.Content)
		}
	}
	for _, q := range qna {
		detail.QnaHistory = append(detail.QnaHistory, QnaEntry{
			ID:       q.ID,
			Question: q.Question,
			Answer:   q.Answer,
			Created:  q.CreatedAt,
		})
	}
	return detail, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Service) ToggleFavorite(ctx context.Context, userID, articleID string) (bool, error) {
	article, err := s.Get(ctx, userID, articleID)
	if err != nil {
		return false, err
	}
	next := !article.IsFavorited
	if err := s.db.WithContext(ctx).Model(article).
		Update("is_favorited", next).Error; err != nil {
		return false, err
	}
	return next, nil
}

// Delete removes an article and everything it owns: analyses, Q&A rows, and
// author join rows. Author rows themselves survive; they are shared.
func (s *Service) Delete(ctx context.Context, userID, articleID string) error {
	article, err := s.Get(ctx, userID, articleID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.AnalysisModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.QnaHistoryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(article).Association("Authors").Clear(); err != nil {
			return err
		}
		return tx.Delete(article).Error
	})
}

// Ask answers a question grounded in the article's title and abstract and
// appends the pair to the Q&A history. The AI never fails the request; a
// broken provider yields a stored apology answer.
func (s *Service) Ask(ctx context.Context, userID, articleID, question string) (*QnaEntry, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is required")
	}
	var user models.UserModel
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	article, err := s.Get(ctx, user.ID, articleID)
	if err != nil {
		return nil, err
	}

	contextText := fmt.Sprintf("Title: %s\n\nAbstract: %s", article.Title, article.OriginalSummary)
	answer := s.answerer.AnswerWithContext(ctx, question, contextText, user.APIKey)

	row := models.QnaHistoryModel{
		ArticleID: article.ID,
		Question:  question,
		Answer:    answer,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &QnaEntry{ID: row.ID, Question: row.Question, Answer: row.Answer, Created: row.CreatedAt}, nil
}

// ExportBibTeX renders a single-entry .bib document for the article. The
// citation key is the trailing segment of the external id.
func (s *Service) ExportBibTeX(ctx context.Context, userID, articleID string) (key string, body string, err error) {
	article, err := s.Get(ctx, userID, articleID)
	if err != nil {
		return "", "", err
	}

	key = article.EntryID
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		key = key[idx+1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", key)
	fmt.Fprintf(&b, "  title = {%s},\n", article.Title)
	fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(authorNames(article.Authors), " and "))
	fmt.Fprintf(&b, "  year = {%d},\n", article.Published.Year())
	fmt.Fprintf(&b, "  journal = {arXiv preprint},\n")
	fmt.Fprintf(&b, "  url = {%s},\n", article.EntryID)
	b.WriteString("}\n")
	return key, b.String(), nil
}

func authorNames(authors []models.AuthorModel) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return names
}
