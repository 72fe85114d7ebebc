// users.go - In-memory user store.
//
// Users live only in process memory: a restart loses every registered
// account. Records are append-only (no update or delete), ids are assigned
// by a counter starting at 1 and never reused.
package server

import (
	"errors"
	"sync"
)

// User is a stored credential record. PasswordHash is an opaque bcrypt
// digest; handlers must never serialize it into a response.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
}

var (
	// ErrIncompleteUser is returned when a record is missing a required field.
	ErrIncompleteUser = errors.New("incomplete user data")
	// ErrUsernameTaken is returned by Create when the username already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore owns the ordered collection of registered users.
// The zero value is not usable; construct with NewUserStore so each test
// gets a fresh, empty store.
type UserStore struct {
	mu     sync.Mutex
	users  []User
	nextID int
}

// NewUserStore returns an empty store with the id counter at 1.
func NewUserStore() *UserStore {
	return &UserStore{nextID: 1}
}

// Add validates the fields, assigns the next sequential id, and appends
// the record. It does not check for duplicate usernames; that is Create's
// job. The stored record is returned, hash included.
func (s *UserStore) Add(username, email, passwordHash string) (User, error) {
	if username == "" || email == "" || passwordHash == "" {
		return User{}, ErrIncompleteUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(username, email, passwordHash), nil
}

// Create is the insert-if-absent operation used by registration: the
// uniqueness check and the append happen under a single lock, so two
// concurrent registrations for the same username cannot both succeed.
func (s *UserStore) Create(username, email, passwordHash string) (User, error) {
	if username == "" || email == "" || passwordHash == "" {
		return User{}, ErrIncompleteUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(username); ok {
		return User{}, ErrUsernameTaken
	}
	return s.addLocked(username, email, passwordHash), nil
}

// FindByUsername scans the collection in insertion order and returns the
// first exact match. No case folding.
func (s *UserStore) FindByUsername(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(username)
}

// Len reports the number of registered users (used by the health check).
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *UserStore) addLocked(username, email, passwordHash string) User {
	u := User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.nextID++
	s.users = append(s.users, u)
	return u
}

func (s *UserStore) findLocked(username string) (User, bool) {
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}
