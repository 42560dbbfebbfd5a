package service

import (
	"testing"
	"time"

	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstRegistrationBecomesAdministrator(t *testing.T) {
	env := newTestEnv(t)

	first := env.register(t, "alice", "alice@example.com")
	assert.Equal(t, []string{model.GroupAdministrator}, first.Groups)

	rights, err := env.rights.EffectiveRights(first.User.Id)
	require.NoError(t, err)
	assert.True(t, rights.HasWildcard())

	second := env.register(t, "bob", "bob@example.com")
	assert.Equal(t, []string{model.GroupUser}, second.Groups)

	rights, err = env.rights.EffectiveRights(second.User.Id)
	require.NoError(t, err)
	assert.False(t, rights.HasWildcard())
	assert.False(t, rights.Satisfies(model.RightCreateContent))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  entity.RegisterRequest
	}{
		{"short username", entity.RegisterRequest{Username: "ab", Email: "a@b.co", Password: "password123"}},
		{"bad characters", entity.RegisterRequest{Username: "no spaces", Email: "a@b.co", Password: "password123"}},
		{"bad email", entity.RegisterRequest{Username: "alice", Email: "not-an-email", Password: "password123"}},
		{"short password", entity.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(tt.req, ClientInfo{})
			require.Error(t, err)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}
}

func TestRegisterConflictIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	// Same username, different email.
	_, err := env.users.Register(entity.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "password123",
	}, ClientInfo{})
	require.Error(t, err)
	assert.Equal(t, common.KindConflict, common.KindOf(err))

	// Same email, different username: identical message, nothing to
	// tell the two collisions apart.
	_, err2 := env.users.Register(entity.RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "password123",
	}, ClientInfo{})
	require.Error(t, err2)
	assert.Equal(t, common.KindConflict, common.KindOf(err2))
	assert.Equal(t, common.AsAppError(err).Msg, common.AsAppError(err2).Msg)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	byName, err := env.users.Login(entity.LoginRequest{Login: "alice", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, byName.Token)

	byEmail, err := env.users.Login(entity.LoginRequest{Login: "alice@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, byEmail.Token)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	_, errNoUser := env.users.Login(entity.LoginRequest{Login: "nobody", Password: "password123"}, ClientInfo{})
	_, errBadPass := env.users.Login(entity.LoginRequest{Login: "alice", Password: "wrongpassword"}, ClientInfo{})

	require.Error(t, errNoUser)
	require.Error(t, errBadPass)
	assert.Equal(t, common.KindAuthentication, common.KindOf(errNoUser))
	assert.Equal(t, common.KindAuthentication, common.KindOf(errBadPass))
	assert.Equal(t, common.AsAppError(errNoUser).Msg, common.AsAppError(errBadPass).Msg)
}

func TestSessionValidityAndRevocation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")
	id := env.identity(t, resp)

	_, err := env.sessions.Validate(id.UserId, id.SessionId, resp.Token)
	require.NoError(t, err)

	// Logout revokes exactly that session; the still-valid token must
	// no longer be accepted.
	require.NoError(t, env.sessions.Revoke(id.SessionId))
	_, err = env.sessions.Validate(id.UserId, id.SessionId, resp.Token)
	require.Error(t, err)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))

	// Revoking an already-gone session is not an error.
	require.NoError(t, env.sessions.Revoke(id.SessionId))
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")

	tok1, s1, err := env.sessions.Issue(resp.User.Id, false, ClientInfo{})
	require.NoError(t, err)
	tok2, s2, err := env.sessions.Issue(resp.User.Id, true, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, env.sessions.RevokeAll(resp.User.Id))

	_, err = env.sessions.Validate(resp.User.Id, s1.Id, tok1)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))
	_, err = env.sessions.Validate(resp.User.Id, s2.Id, tok2)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))
}

func TestRememberMeExtendsExpiry(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")

	_, short, err := env.sessions.Issue(resp.User.Id, false, ClientInfo{})
	require.NoError(t, err)
	_, long, err := env.sessions.Issue(resp.User.Id, true, ClientInfo{})
	require.NoError(t, err)

	assert.True(t, long.ExpiresAt.After(short.ExpiresAt))
}

func TestTokenMustMatchSessionDigest(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")
	id := env.identity(t, resp)

	// A different (even legitimately signed) token does not match the
	// stored digest of this session.
	other, err := env.tokens.Generate(id.UserId, id.SessionId, envSessionExpiry(t, env, id.SessionId))
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, other)
	_, err = env.sessions.Validate(id.UserId, id.SessionId, other)
	require.Error(t, err)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")
	id := env.identity(t, resp)

	otherTok, otherSession, err := env.sessions.Issue(resp.User.Id, false, ClientInfo{})
	require.NoError(t, err)

	err = env.users.ChangePassword(id.UserId, id.SessionId, "password123", "newpassword456")
	require.NoError(t, err)

	// The issuing session survives, the other one is gone.
	_, err = env.sessions.Validate(id.UserId, id.SessionId, resp.Token)
	assert.NoError(t, err)
	_, err = env.sessions.Validate(resp.User.Id, otherSession.Id, otherTok)
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))

	// Old password no longer works, the new one does.
	_, err = env.users.Login(entity.LoginRequest{Login: "alice", Password: "password123"}, ClientInfo{})
	assert.Equal(t, common.KindAuthentication, common.KindOf(err))
	_, err = env.users.Login(entity.LoginRequest{Login: "alice", Password: "newpassword456"}, ClientInfo{})
	assert.NoError(t, err)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")
	id := env.identity(t, resp)

	err := env.users.ChangePassword(id.UserId, id.SessionId, "wrongcurrent", "newpassword456")
	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestUpdateProfileAppliesOnlyPresentFields(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "alice", "alice@example.com")

	display := "Alice A."
	user, err := env.users.UpdateProfile(resp.User.Id, entity.UpdateProfileRequest{DisplayName: &display})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", user.DisplayName)

	bio := "hello"
	user, err = env.users.UpdateProfile(resp.User.Id, entity.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", user.Bio)
	assert.Equal(t, "Alice A.", user.DisplayName)
}

func TestGetProfileMarksOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "alice@example.com")
	bob := env.register(t, "bob", "bob@example.com")

	profile, err := env.users.GetProfile(bob.User.Id, &entity.Identity{UserId: bob.User.Id})
	require.NoError(t, err)
	assert.True(t, profile.IsOwner)

	profile, err = env.users.GetProfile(bob.User.Id, &entity.Identity{UserId: alice.User.Id})
	require.NoError(t, err)
	assert.False(t, profile.IsOwner)

	profile, err = env.users.GetProfile(bob.User.Id, nil)
	require.NoError(t, err)
	assert.False(t, profile.IsOwner)

	_, err = env.users.GetProfile(99999, nil)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestListUsersPagination(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	env.register(t, "bob", "bob@example.com")
	env.register(t, "carol", "carol@example.com")

	users, pagination, err := env.users.ListUsers(1, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.EqualValues(t, 3, pagination.Total)

	users, _, err = env.users.ListUsers(2, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func envSessionExpiry(t *testing.T, env *testEnv, sessionId string) time.Time {
	t.Helper()
	session := &model.Session{}
	require.NoError(t, env.db.Where("id = ?", sessionId).First(session).Error)
	return session.ExpiresAt
}
