package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tempUserFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "users.json")
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store, err := NewUserStore(tempUserFile(t))
	assert.Nil(t, err)

	user, err := store.Register("jamie", "jamie@example.com", "hunter2")
	assert.Nil(t, err)
	assert.Equal(t, "jamie", user.Username)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	got, err := store.Authenticate("jamie", "hunter2")
	assert.Nil(t, err)
	assert.Equal(t, "jamie@example.com", got.Email)

	_, err = store.Authenticate("jamie", "wrong")
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = store.Authenticate("nobody", "hunter2")
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestRegisterDuplicate(t *testing.T) {
	store, err := NewUserStore(tempUserFile(t))
	assert.Nil(t, err)

	_, err = store.Register("jamie", "jamie@example.com", "hunter2")
	assert.Nil(t, err)
	_, err = store.Register("jamie", "other@example.com", "hunter3")
	assert.Equal(t, ErrUserExists, err)
}

func TestUserFileSurvivesReload(t *testing.T) {
	path := tempUserFile(t)

	store, err := NewUserStore(path)
	assert.Nil(t, err)
	_, err = store.Register("jamie", "jamie@example.com", "hunter2")
	assert.Nil(t, err)

	reloaded, err := NewUserStore(path)
	assert.Nil(t, err)
	_, err = reloaded.Authenticate("jamie", "hunter2")
	assert.Nil(t, err)
}

func TestCorruptUserFileReinitializes(t *testing.T) {
	path := tempUserFile(t)
	assert.Nil(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := NewUserStore(path)
	assert.Nil(t, err)
	_, ok := store.Get("anyone")
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	sessions := NewSessionManager()

	token := sessions.Issue("jamie")
	assert.NotEmpty(t, token)

	username, ok := sessions.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "jamie", username)

	sessions.Revoke(token)
	_, ok = sessions.Resolve(token)
	assert.False(t, ok)

	// tokens are unique per session
	assert.NotEqual(t, token, sessions.Issue("jamie"))
}
