package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/velasier/paperbase/internal/models"
	"github.com/velasier/paperbase/internal/modules/arxiv"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs the paper ingestion pipeline: query the source, download
// artifacts, persist articles and AI analyses.
type Service struct {
	db         *gorm.DB
	source     PaperSource
	analyzer   Analyzer
	storageDir string
	maxResults int
	logger     *zap.Logger
}

// NewService creates an ingestion service. maxResults bounds how many papers
// a single keyword fetch pulls from the source.
func NewService(db *gorm.DB, source PaperSource, analyzer Analyzer, storageDir string, maxResults int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{
		db:         db,
		source:     source,
		analyzer:   analyzer,
		storageDir: storageDir,
		maxResults: maxResults,
		logger:     logger.Named("ingest"),
	}
}

// RunScheduledFetch fetches new papers for every user's keyword set. Per-user
// failures are logged and skipped so one bad account never stalls the sweep.
// The scheduler treats a nil return as a fulfilled run.
func (s *Service) RunScheduledFetch(ctx context.Context) error {
	var users []models.UserModel
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	total := 0
	for i := range users {
		imported, err := s.FetchForUser(ctx, &users[i])
		if err != nil {
			s.logger.Warn("scheduled fetch failed for user",
				zap.String("user", users[i].Username), zap.Error(err))
			continue
		}
		total += imported
	}
	s.logger.Info("scheduled fetch finished", zap.Int("users", len(users)), zap.Int("imported", total))
	return nil
}

// FetchForUser queries the source with the user's keywords joined into one
// disjunctive query and imports every result not yet in the library.
func (s *Service) FetchForUser(ctx context.Context, user *models.UserModel) (int, error) {
	var keywords []models.KeywordModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Find(&keywords).Error; err != nil {
		return 0, fmt.Errorf("list keywords: %w", err)
	}
	if len(keywords) == 0 {
		s.logger.Debug("user has no keywords, fetch skipped", zap.String("user", user.Username))
		return 0, nil
	}

	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		terms = append(terms, fmt.Sprintf("all:%q", kw.Keyword))
	}
	query := strings.Join(terms, " OR ")

	papers, err := s.source.Search(ctx, query, s.maxResults)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, p := range papers {
		ok, err := s.ProcessPaper(ctx, user, p)
		if err != nil {
			s.logger.Warn("paper import failed",
				zap.String("entry_id", p.EntryID), zap.Error(err))
			continue
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

// SearchOnly previews source results for an ad-hoc query without importing
// anything. Results already in the library are flagged.
func (s *Service) SearchOnly(ctx context.Context, query string) ([]SearchResult, error) {
	papers, err := s.source.Search(ctx, query, s.maxResults)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(papers))
	for _, p := range papers {
		ids = append(ids, p.EntryID)
	}
	existing := map[string]bool{}
	if len(ids) > 0 {
		var rows []models.ArticleModel
		if err := s.db.WithContext(ctx).
			Select("entry_id").
			Where("entry_id IN ?", ids).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			existing[r.EntryID] = true
		}
	}

	results := make([]SearchResult, 0, len(papers))
	for _, p := range papers {
		results = append(results, SearchResult{
			EntryID:   p.EntryID,
			Title:     p.Title,
			Authors:   p.Authors,
			Published: p.Published.Format("2006-01-02"),
			Summary:   p.Summary,
			PDFURL:    p.PDFURL,
			Imported:  existing[p.EntryID],
		})
	}
	return results, nil
}

// BatchImport resolves explicit external ids (bare or abs-URL form) and runs
// the full import pipeline on each. Returns how many were newly imported.
func (s *Service) BatchImport(ctx context.Context, user *models.UserModel, rawIDs []string) (int, error) {
	ids := make([]string, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id := NormalizeEntryID(raw); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	papers, err := s.source.SearchByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, p := range papers {
		ok, err := s.ProcessPaper(ctx, user, p)
		if err != nil {
			s.logger.Warn("batch import failed for paper",
				zap.String("entry_id", p.EntryID), zap.Error(err))
			continue
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

// ProcessPaper imports one paper for a user: artifacts first, then the
// article row, then AI analyses. Returns false when the paper was already in
// the user's library.
func (s *Service) ProcessPaper(ctx context.Context, user *models.UserModel, p arxiv.Paper) (bool, error) {
	if p.EntryID == "" {
		return false, fmt.Errorf("paper has no entry id")
	}

	// entry_id is the global dedupe key; a paper already imported by any
	// account is never stored twice.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ArticleModel{}).
		Where("entry_id = ?", p.EntryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		s.logger.Debug("paper already imported", zap.String("entry_id", p.EntryID))
		return false, nil
	}

	folderName := fmt.Sprintf("%s - %s", p.Published.Format("2006-01-02"), SanitizeTitle(p.Title))
	paperDir := filepath.Join(s.storageDir, folderName)
	if err := os.MkdirAll(paperDir, 0o755); err != nil {
		return false, fmt.Errorf("create paper dir: %w", err)
	}

	// Artifact downloads degrade to "no artifact": the article row is still
	// persisted so the library stays complete.
	if _, err := s.source.FetchPDF(ctx, p, paperDir, SanitizeTitle(p.Title)+".pdf"); err != nil {
		s.logger.Warn("pdf download failed", zap.String("entry_id", p.EntryID), zap.Error(err))
	}

	imagePaths := s.extractFigures(ctx, p, paperDir, folderName)

	article := models.ArticleModel{
		EntryID:         p.EntryID,
		Title:           p.Title,
		Published:       p.Published,
		PDFURL:          p.PDFURL,
		OriginalSummary: p.Summary,
		LocalPath:       folderName,
		ImagePaths:      imagePaths,
		UserID:          user.ID,
	}

	// entry_id carries a unique index; a concurrent import of the same paper
	// resolves to a no-op insert here instead of an error.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}},
			DoNothing: true,
		}).
		Create(&article)
	if res.Error != nil {
		return false, fmt.Errorf("persist article: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Debug("paper inserted concurrently, skipped", zap.String("entry_id", p.EntryID))
		return false, nil
	}

	if err := s.attachAuthors(ctx, &article, p.Authors); err != nil {
		s.logger.Warn("author attach failed", zap.String("entry_id", p.EntryID), zap.Error(err))
	}

	analyses := s.runAnalyses(ctx, &article, user.APIKey)

	if err := writeSidecar(paperDir, &article, p.Authors, analyses); err != nil {
		s.logger.Warn("sidecar write failed", zap.String("entry_id", p.EntryID), zap.Error(err))
	}

	s.logger.Info("paper imported",
		zap.String("entry_id", p.EntryID),
		zap.String("title", p.Title),
		zap.Int("analyses", len(analyses)))
	return true, nil
}

func (s *Service) attachAuthors(ctx context.Context, article *models.ArticleModel, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var author models.AuthorModel
		if err := s.db.WithContext(ctx).
			Where("name = ?", name).
			FirstOrCreate(&author, models.AuthorModel{Name: name}).Error; err != nil {
			return err
		}
		if err := s.db.WithContext(ctx).Model(article).
			Association("Authors").Append(&author); err != nil {
			return err
		}
	}
	return nil
}

// extractFigures pulls figure images from the paper's source archive. All
// failures collapse to an empty list; figures are a nicety, not a requirement.
func (s *Service) extractFigures(ctx context.Context, p arxiv.Paper, paperDir, folderName string) models.StringArray {
	archivePath, err := s.source.FetchSourceArchive(ctx, p, paperDir)
	if err != nil {
		s.logger.Debug("source archive unavailable", zap.String("entry_id", p.EntryID), zap.Error(err))
		return nil
	}
	names := extractImages(archivePath, paperDir)
	if len(names) == 0 {
		return nil
	}
	paths := make(models.StringArray, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.ToSlash(filepath.Join(folderName, imagesSubdir, n)))
	}
	return paths
}

// runAnalyses requests both analysis kinds sequentially and persists whichever
// succeed. A failed kind is simply absent; Regenerate can fill it in later.
func (s *Service) runAnalyses(ctx context.Context, article *models.ArticleModel, apiKey string) map[models.AnalysisKind]datatypes.JSON {
	out := map[models.AnalysisKind]datatypes.JSON{}
	for _, kind := range []models.AnalysisKind{models.AnalysisSummary, models.AnalysisDetailed} {
		content := s.analyzer.StructuredAnalyze(ctx, kind, article.OriginalSummary, apiKey)
		if content == nil {
			continue
		}
		row := models.AnalysisModel{
			ArticleID: article.ID,
			Kind:      kind,
			Content:   content,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			s.logger.Warn("analysis persist failed",
				zap.String("entry_id", article.EntryID),
				zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		out[kind] = content
	}
	return out
}

func (s *Service) loadUser(ctx context.Context, userID string) (*models.UserModel, error) {
	var user models.UserModel
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RegenerateForUser resolves an owner-scoped article and re-runs its
// analyses with the owner's API key.
func (s *Service) RegenerateForUser(ctx context.Context, userID, articleID string) (map[models.AnalysisKind]datatypes.JSON, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var article models.ArticleModel
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", articleID, userID).
		First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Regenerate(ctx, &article, user.APIKey)
}

// Regenerate drops an article's analyses and recreates them from the stored
// abstract. Partial AI failure leaves that kind absent rather than stale.
func (s *Service) Regenerate(ctx context.Context, article *models.ArticleModel, apiKey string) (map[models.AnalysisKind]datatypes.JSON, error) {
	if err := s.db.WithContext(ctx).
		Where("article_id = ?", article.ID).
		Delete(&models.AnalysisModel{}).Error; err != nil {
		return nil, fmt.Errorf("clear analyses: %w", err)
	}
	return s.runAnalyses(ctx, article, apiKey), nil
}
