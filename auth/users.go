package auth

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitpress/gitpress/model"
	Logger "github.com/gitpress/gitpress/utils/log"
)

var (
	// ErrUserExists is returned when registering a username that is taken.
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials is returned on unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// userFile is the on-disk shape of the account store.
type userFile struct {
	Users []model.User `json:"users"`
}

// UserStore keeps accounts in a local JSON file with bcrypt password
// hashes. All methods are safe for concurrent use; every mutation rewrites
// the whole file.
type UserStore struct {
	mu    sync.Mutex
	path  string
	users map[string]model.User
}

// NewUserStore loads the user file at path. A missing file starts an empty
// store; a corrupt file is reinitialized empty rather than failing startup.
func NewUserStore(path string) (*UserStore, error) {
	store := &UserStore{path: path, users: make(map[string]model.User)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, errors.Wrapf(err, "read user file %s", path)
	}

	var file userFile
	if err := json.Unmarshal(data, &file); err != nil {
		Logger.Log.Warn("user file invalid or corrupted, reinitializing empty: ", err)
		return store, nil
	}
	for _, user := range file.Users {
		store.users[user.Username] = user
	}
	return store, nil
}

// save must be called with the lock held.
func (s *UserStore) save() error {
	file := userFile{Users: []model.User{}}
	for _, user := range s.users {
		file.Users = append(file.Users, user)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return errors.Wrap(err, "serialize user file")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrapf(err, "write user file %s", s.path)
	}
	return nil
}

// Register creates an account with a bcrypt-hashed password and persists
// the store.
func (s *UserStore) Register(username string, email string, password string) (model.User, error) {
	if username == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return model.User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	s.users[username] = user

	if err := s.save(); err != nil {
		delete(s.users, username)
		return model.User{}, err
	}
	return user, nil
}

// Authenticate verifies username and password, returning the account on
// success. Unknown user and wrong password are indistinguishable to the
// caller.
func (s *UserStore) Authenticate(username string, password string) (model.User, error) {
	s.mu.Lock()
	user, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get looks up an account by username.
func (s *UserStore) Get(username string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	return user, ok
}
