package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velasier/paperbase/internal/database"
	"github.com/velasier/paperbase/internal/models"
	"github.com/velasier/paperbase/internal/modules/arxiv"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *models.UserModel {
	t.Helper()
	user := models.UserModel{Username: username, Password: "hash"}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

type fakeSource struct {
	papers      []arxiv.Paper
	searchErr   error
	searchCalls int
	gotQuery    string
	gotIDs      []string
}

func (f *fakeSource) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error) {
	f.searchCalls++
	f.gotQuery = query
	return f.papers, f.searchErr
}

func (f *fakeSource) SearchByIDs(ctx context.Context, ids []string) ([]arxiv.Paper, error) {
	f.searchCalls++
	f.gotIDs = ids
	return f.papers, f.searchErr
}

func (f *fakeSource) FetchPDF(ctx context.Context, p arxiv.Paper, dir, filename string) (string, error) {
	dest := filepath.Join(dir, filename)
	if err := os.WriteFile(dest, []byte("%PDF"), 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

func (f *fakeSource) FetchSourceArchive(ctx context.Context, p arxiv.Paper, dir string) (string, error) {
	return "", fmt.Errorf("%w: no source", arxiv.ErrSourceUnavailable)
}

type fakeAnalyzer struct {
	content datatypes.JSON
	calls   int
}

func (f *fakeAnalyzer) StructuredAnalyze(ctx context.Context, kind models.AnalysisKind, abstract, apiKeyOverride string) datatypes.JSON {
	f.calls++
	return f.content
}

func samplePaper(id string) arxiv.Paper {
	return arxiv.Paper{
		EntryID:   "http://arxiv.org/abs/" + id,
		Title:     "Sample Paper " + id,
		Summary:   "An abstract.",
		Authors:   []string{"Alice Smith", "Bob Jones"},
		Published: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		PDFURL:    "http://arxiv.org/pdf/" + id,
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`A Study: of "Things" <and/or> Stuff?`, "A Study of Things andor Stuff"},
		{"  plain title  ", "plain title"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeTitle(tt.in))
	}

	long := ""
	for i := 0; i < 30; i++ {
		long += "abcde"
	}
	assert.Len(t, []rune(SanitizeTitle(long)), 80)
}

func TestNormalizeEntryID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2401.00001v1", "2401.00001v1"},
		{"http://arxiv.org/abs/2401.00001v1", "2401.00001v1"},
		{"https://arxiv.org/abs/2401.00001v1/", "2401.00001v1"},
		{"  2401.00001  ", "2401.00001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEntryID(tt.in))
	}
}

func TestProcessPaperImportsArticle(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	analyzer := &fakeAnalyzer{content: datatypes.JSON(`{"innovation_rating":4}`)}
	svc := NewService(db, &fakeSource{}, analyzer, t.TempDir(), 5, nil)

	imported, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)
	assert.True(t, imported)

	var article models.ArticleModel
	require.NoError(t, db.Preload("Authors").First(&article, "entry_id = ?", "http://arxiv.org/abs/2401.00001v1").Error)
	assert.Equal(t, user.ID, article.UserID)
	assert.Equal(t, "2024-01-02 - Sample Paper 2401.00001v1", article.LocalPath)
	assert.Len(t, article.Authors, 2)

	var analyses int64
	db.Model(&models.AnalysisModel{}).Where("article_id = ?", article.ID).Count(&analyses)
	assert.EqualValues(t, 2, analyses, "summary and detailed analyses persisted")
}

func TestProcessPaperSkipsDuplicate(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	p := samplePaper("2401.00001v1")
	first, err := svc.ProcessPaper(context.Background(), user, p)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := svc.ProcessPaper(context.Background(), user, p)
	require.NoError(t, err)
	assert.False(t, second)

	var count int64
	db.Model(&models.ArticleModel{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProcessPaperPersistsWithoutAnalyses(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{content: nil}, t.TempDir(), 5, nil)

	imported, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)
	assert.True(t, imported, "AI failure must not block the import")

	var articles, analyses int64
	db.Model(&models.ArticleModel{}).Count(&articles)
	db.Model(&models.AnalysisModel{}).Count(&analyses)
	assert.EqualValues(t, 1, articles)
	assert.EqualValues(t, 0, analyses)
}

func TestProcessPaperReusesAuthors(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	_, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)
	_, err = svc.ProcessPaper(context.Background(), user, samplePaper("2401.00002v1"))
	require.NoError(t, err)

	var authors int64
	db.Model(&models.AuthorModel{}).Count(&authors)
	assert.EqualValues(t, 2, authors, "same names across papers share author rows")
}

func TestProcessPaperWritesSidecar(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	storage := t.TempDir()
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{content: datatypes.JSON(`{"x":1}`)}, storage, 5, nil)

	_, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)

	sidecar := filepath.Join(storage, "2024-01-02 - Sample Paper 2401.00001v1", sidecarFilename)
	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entry_id"`)
	assert.Contains(t, string(data), "summary")
}

func TestFetchForUserWithoutKeywords(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	source := &fakeSource{}
	svc := NewService(db, source, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	imported, err := svc.FetchForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Zero(t, source.searchCalls, "no keywords means no source query")
}

func TestFetchForUserBuildsDisjunctiveQuery(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	require.NoError(t, db.Create(&models.KeywordModel{Keyword: "robotics", UserID: user.ID}).Error)
	require.NoError(t, db.Create(&models.KeywordModel{Keyword: "slam", UserID: user.ID}).Error)

	source := &fakeSource{papers: []arxiv.Paper{samplePaper("2401.00001v1"), samplePaper("2401.00002v1")}}
	svc := NewService(db, source, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	imported, err := svc.FetchForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Contains(t, source.gotQuery, `all:"robotics"`)
	assert.Contains(t, source.gotQuery, `all:"slam"`)
	assert.Contains(t, source.gotQuery, " OR ")
}

func TestRunScheduledFetchSurvivesUserFailure(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	newTestUser(t, db, "bob")
	require.NoError(t, db.Create(&models.KeywordModel{Keyword: "robotics", UserID: alice.ID}).Error)

	source := &fakeSource{searchErr: fmt.Errorf("%w: down", arxiv.ErrSourceUnavailable)}
	svc := NewService(db, source, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	err := svc.RunScheduledFetch(context.Background())
	assert.NoError(t, err, "a failing source never fails the sweep")
}

func TestSearchOnlyFlagsImported(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	source := &fakeSource{papers: []arxiv.Paper{samplePaper("2401.00001v1"), samplePaper("2401.00002v1")}}
	svc := NewService(db, source, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	_, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)

	results, err := svc.SearchOnly(context.Background(), "all:x")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Imported)
	assert.False(t, results[1].Imported)

	var count int64
	db.Model(&models.ArticleModel{}).Count(&count)
	assert.EqualValues(t, 1, count, "search must not import")
}

func TestBatchImportNormalizesIDs(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	source := &fakeSource{papers: []arxiv.Paper{samplePaper("2401.00001v1")}}
	svc := NewService(db, source, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	imported, err := svc.BatchImport(context.Background(), user, []string{
		"http://arxiv.org/abs/2401.00001v1",
		" 2401.00002v1 ",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, []string{"2401.00001v1", "2401.00002v1"}, source.gotIDs)
}

func TestRegenerateReplacesAnalyses(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	analyzer := &fakeAnalyzer{content: datatypes.JSON(`{"old":true}`)}
	svc := NewService(db, &fakeSource{}, analyzer, t.TempDir(), 5, nil)

	_, err := svc.ProcessPaper(context.Background(), user, samplePaper("2401.00001v1"))
	require.NoError(t, err)

	var article models.ArticleModel
	require.NoError(t, db.First(&article, "user_id = ?", user.ID).Error)

	analyzer.content = datatypes.JSON(`{"fresh":true}`)
	out, err := svc.RegenerateForUser(context.Background(), user.ID, article.ID)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	var rows []models.AnalysisModel
	require.NoError(t, db.Where("article_id = ?", article.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.JSONEq(t, `{"fresh":true}`, string(r.Content))
	}
}

func TestRegenerateForUnknownArticle(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	_, err := svc.RegenerateForUser(context.Background(), user.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestRegenerateOtherUsersArticle(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	svc := NewService(db, &fakeSource{}, &fakeAnalyzer{}, t.TempDir(), 5, nil)

	_, err := svc.ProcessPaper(context.Background(), alice, samplePaper("2401.00001v1"))
	require.NoError(t, err)

	var article models.ArticleModel
	require.NoError(t, db.First(&article, "user_id = ?", alice.ID).Error)

	_, err = svc.RegenerateForUser(context.Background(), bob.ID, article.ID)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}
