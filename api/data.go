package main

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultAvatar = "Bear"

var avatars = []string{"Bear", "Bee", "Fox", "Panda"}

const (
	statusIncomplete = "Incomplete"
	statusInProgress = "In Progress"
	statusCompleted  = "Completed"
)

var taskStatuses = []string{statusIncomplete, statusInProgress, statusCompleted}

type user struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Avatar       string    `json:"avatar"`
}

// avatarOrDefault returns the stored avatar, falling back to defaultAvatar for
// accounts created before one was chosen.
func (u *user) avatarOrDefault() string {
	if u.Avatar == "" {
		return defaultAvatar
	}
	return u.Avatar
}

func (u *user) setPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// passwordMatches reports whether plaintext verifies against the stored hash.
func (u *user) passwordMatches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

type task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	DueDate     string    `json:"dueDate,omitempty"`
	DueTime     string    `json:"dueTime,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *task) ownedBy(u *user) bool {
	return u != nil && t.UserID == u.ID
}

// statusCount is one (category, status) group produced by the task store.
type statusCount struct {
	Category string
	Status   string
	Count    int
}
