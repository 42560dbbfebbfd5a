package service

import (
	"path/filepath"
	"testing"

	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/token"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	tokens    *token.Manager
	rights    *RightsService
	sessions  *SessionService
	users     *UserService
	groups    *GroupService
	articles  *ArticleService
	analytics *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	tokens, err := token.NewManager("test-secret-test-secret-test-secret", "modelhub-test")
	require.NoError(t, err)

	env := &testEnv{db: db, tokens: tokens}
	env.analytics = NewAnalyticsService()
	env.rights = NewRightsService(db)
	env.sessions = NewSessionService(db, tokens)
	env.users = NewUserService(db, env.sessions, env.rights)
	env.groups = NewGroupService(db, env.rights)
	env.articles = NewArticleService(db, env.rights, env.analytics)
	return env
}

// register creates a user through the real registration path and
// returns the auth response.
func (env *testEnv) register(t *testing.T, username, email string) *entity.AuthResponse {
	t.Helper()
	resp, err := env.users.Register(entity.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "password123",
	}, ClientInfo{})
	require.NoError(t, err)
	return resp
}

// identity builds the request identity matching an auth response.
func (env *testEnv) identity(t *testing.T, resp *entity.AuthResponse) *entity.Identity {
	t.Helper()
	claims, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	return &entity.Identity{UserId: claims.UserId, SessionId: claims.SessionId}
}
