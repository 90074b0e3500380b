// ABOUTME: Tests for password hashing, tokens and login
// ABOUTME: Uses an in-memory user finder instead of the database
package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers map[string]*models.User

func (m memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m[email]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("", "anything"))

	_, err = HashPassword("short")
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret-0123456789", time.Hour)
	user := &models.User{ID: uuid.New(), Name: "Dana", Role: models.RoleSales}

	token, expires, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	s, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, s.UserID)
	assert.Equal(t, models.RoleSales, s.Role)
	assert.Equal(t, "Dana", s.Name)
	assert.False(t, s.IsAdmin())
}

func TestVerifyRejects(t *testing.T) {
	issuer := NewIssuer("test-secret-0123456789", time.Hour)
	user := &models.User{ID: uuid.New(), Name: "Dana", Role: models.RoleAdmin}
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	other := NewIssuer("another-secret-0123456789", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("test-secret-0123456789", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	users := memUsers{"dana@example.com": {ID: uuid.New(), Name: "Dana", Email: "dana@example.com", Role: models.RoleUser, PasswordHash: hash}}
	issuer := NewIssuer("test-secret-0123456789", time.Hour)

	token, user, err := Login(context.Background(), users, issuer, "dana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Dana", user.Name)

	_, _, err = Login(context.Background(), users, issuer, "dana@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = Login(context.Background(), users, issuer, "ghost@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestRequireRole(t *testing.T) {
	admin := &Session{Role: models.RoleAdmin}
	sales := &Session{Role: models.RoleSales}

	assert.NoError(t, RequireRole(admin, models.RoleAdmin))
	assert.ErrorIs(t, RequireRole(sales, models.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, RequireRole(nil, models.RoleAdmin), ErrInvalidToken)

	ctx := WithSession(context.Background(), sales)
	assert.Equal(t, sales, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
