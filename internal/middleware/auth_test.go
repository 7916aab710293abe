package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velasier/paperbase/internal/database"
	"github.com/velasier/paperbase/internal/models"
	sessionpkg "github.com/velasier/paperbase/internal/pkg/session"
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

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"abc.def.ghi", "abc.def.ghi"},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"  Bearer   abc.def.ghi  ", "abc.def.ghi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeToken(tt.in), "input %q", tt.in)
	}
}

func TestValidateTokenClaims(t *testing.T) {
	db := newTestDB(t)
	user := models.UserModel{Username: "alice", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	token, sess, err := sessionpkg.Issue(db, user.ID, "127.0.0.1", "test", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateTokenClaims(db, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, sess.ID, claims.SessionID)

	claims, err = ValidateTokenClaims(db, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestValidateTokenClaimsRejects(t *testing.T) {
	db := newTestDB(t)

	_, err := ValidateTokenClaims(db, "")
	assert.Error(t, err)
	_, err = ValidateTokenClaims(db, "not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenClaimsExpiredSession(t *testing.T) {
	db := newTestDB(t)
	user := models.UserModel{Username: "alice", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	token, sess, err := sessionpkg.Issue(db, user.ID, "", "", time.Hour)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.UserSession{}).
		Where("id = ?", sess.ID).Update("expires_at", past).Error)

	_, err = ValidateTokenClaims(db, token)
	assert.Error(t, err, "expired session row must invalidate the token")
}
