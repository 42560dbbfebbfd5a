package service

import (
	"time"

	"github.com/modelhub/modelhub/config"
	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/util/crypto"
	"github.com/modelhub/modelhub/web/token"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientInfo is the optional request metadata recorded with a session.
type ClientInfo struct {
	UserAgent  string
	RemoteAddr string
}

// SessionService issues, validates and revokes sessions. A session is
// valid iff its row still exists and expires_at lies in the future;
// expired rows are simply excluded from validity queries, deletion is
// a hygiene job, not a correctness requirement.
type SessionService struct {
	db     *gorm.DB
	tokens *token.Manager
}

func NewSessionService(db *gorm.DB, tokens *token.Manager) *SessionService {
	return &SessionService{db: db, tokens: tokens}
}

// Issue creates a session row for the user and returns the signed
// bearer token together with the row. Only a digest of the token is
// stored.
func (s *SessionService) Issue(userId int, rememberMe bool, client ClientInfo) (string, *model.Session, error) {
	lifetime := config.GetSessionLifetime()
	if rememberMe {
		lifetime = config.GetRememberLifetime()
	}

	now := time.Now()
	session := &model.Session{
		Id:         uuid.New().String(),
		UserId:     userId,
		ExpiresAt:  now.Add(lifetime),
		CreatedAt:  now,
		UserAgent:  client.UserAgent,
		RemoteAddr: client.RemoteAddr,
	}

	signed, err := s.tokens.Generate(userId, session.Id, session.ExpiresAt)
	if err != nil {
		return "", nil, common.Internal(err)
	}
	session.TokenHash = crypto.TokenDigest(signed)

	if err := s.db.Create(session).Error; err != nil {
		return "", nil, common.Internal(err)
	}
	return signed, session, nil
}

// Validate checks that a live session row backs the presented token.
// A syntactically valid, unexpired token whose row has been deleted
// (logout, logout-all, password change) is rejected here.
func (s *SessionService) Validate(userId int, sessionId, rawToken string) (*model.Session, error) {
	session := &model.Session{}
	err := s.db.Where("id = ? AND user_id = ? AND expires_at > ?", sessionId, userId, time.Now()).
		First(session).Error
	if database.IsNotFound(err) {
		return nil, common.Unauthenticated("session expired or revoked")
	} else if err != nil {
		// A down datastore must never look like "not logged in".
		return nil, common.Internal(err)
	}

	if session.TokenHash != crypto.TokenDigest(rawToken) {
		return nil, common.Unauthenticated("token does not match session")
	}
	return session, nil
}

// Revoke deletes one session. Deleting a non-existent id is not an
// error.
func (s *SessionService) Revoke(sessionId string) error {
	err := s.db.Where("id = ?", sessionId).Delete(&model.Session{}).Error
	if err != nil {
		return common.Internal(err)
	}
	return nil
}

// RevokeAll deletes every session owned by the user.
func (s *SessionService) RevokeAll(userId int) error {
	err := s.db.Where("user_id = ?", userId).Delete(&model.Session{}).Error
	if err != nil {
		return common.Internal(err)
	}
	return nil
}

// RevokeAllExcept deletes every session of the user but the given one.
// Used by password changes, which keep the session that issued the
// change alive.
func (s *SessionService) RevokeAllExcept(userId int, keepSessionId string) error {
	err := s.db.Where("user_id = ? AND id <> ?", userId, keepSessionId).
		Delete(&model.Session{}).Error
	if err != nil {
		return common.Internal(err)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns how
// many were deleted.
func (s *SessionService) PurgeExpired() (int64, error) {
	res := s.db.Where("expires_at <= ?", time.Now()).Delete(&model.Session{})
	if res.Error != nil {
		return 0, common.Internal(res.Error)
	}
	return res.RowsAffected, nil
}
