package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// authResponse is the identity payload returned by the auth endpoints. Token
// is left out of profile reads.
type authResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Token  string `json:"token,omitempty"`
}

func newAuthResponse(u *user, token string) authResponse {
	return authResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.avatarOrDefault(),
		Token:  token,
	}
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	v := newValidator()
	v.check(input.Name != "" && input.Email != "" && input.Password != "", "fields", "please fill in all fields")
	v.checkEmail(input.Email)
	v.check(len(input.Password) <= maxPasswordBytes, "password", "password must be at most 72 bytes long")
	if !v.valid() {
		app.failedValidationResponse(w, r, v)
		return
	}

	_, err = app.users.getUserByEmail(r.Context(), input.Email)
	switch {
	case err == nil:
		app.conflictResponse(w, r, "user with this email already exists")
		return
	case !errors.Is(err, errRecordNotFound):
		app.serverErrorResponse(w, r, err)
		return
	}

	now := time.Now().UTC()
	u := &user{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      input.Name,
		Email:     input.Email,
		Avatar:    defaultAvatar,
	}
	err = u.setPassword(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.users.insertUser(r.Context(), u)
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateEmail):
			app.conflictResponse(w, r, "user with this email already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	token, err := app.tokens.issue(u)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.sendMail(u.Email, "user_welcome.tmpl", map[string]any{"name": u.Name})

	err = writeJSON(w, http.StatusCreated, newAuthResponse(u, token), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}
	input.Email = strings.TrimSpace(input.Email)

	// Unknown email and wrong password must be indistinguishable.
	const invalidCredentials = "invalid email or password"

	if input.Email == "" || input.Password == "" {
		app.unauthorizedResponse(w, r, invalidCredentials)
		return
	}

	u, err := app.users.getUserByEmail(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.unauthorizedResponse(w, r, invalidCredentials)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	match, err := u.passwordMatches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !match {
		app.unauthorizedResponse(w, r, invalidCredentials)
		return
	}

	token, err := app.tokens.issue(u)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, newAuthResponse(u, token), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := contextGetUser(r)
	err := writeJSON(w, http.StatusOK, newAuthResponse(u, ""), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateProfileHandler changes name and avatar. A fresh token is issued
// because the old one still carries the previous name and avatar.
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}

	u, err := app.users.getUserByID(r.Context(), contextGetUser(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.notFoundResponse(w, r, "user not found")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	v := newValidator()
	if name := trimmed(input.Name); name != "" {
		u.Name = name
	}
	if avatar := trimmed(input.Avatar); avatar != "" {
		v.checkAvatar(avatar)
		u.Avatar = avatar
	}
	if !v.valid() {
		app.failedValidationResponse(w, r, v)
		return
	}
	u.UpdatedAt = time.Now().UTC()

	err = app.users.updateUser(r.Context(), u)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.notFoundResponse(w, r, "user not found")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	token, err := app.tokens.issue(u)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, newAuthResponse(u, token), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updatePasswordHandler replaces the password hash. Tokens issued before the
// change stay valid until they expire.
func (app *application) updatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err.Error())
		return
	}

	v := newValidator()
	v.check(input.CurrentPassword != "" && input.NewPassword != "", "fields", "please provide both current and new passwords")
	if v.valid() {
		v.checkNewPassword("newPassword", input.NewPassword)
	}
	if !v.valid() {
		app.failedValidationResponse(w, r, v)
		return
	}

	const invalidCurrent = "invalid current password"

	u, err := app.users.getUserByID(r.Context(), contextGetUser(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, errRecordNotFound):
			app.unauthorizedResponse(w, r, invalidCurrent)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	match, err := u.passwordMatches(input.CurrentPassword)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !match {
		app.unauthorizedResponse(w, r, invalidCurrent)
		return
	}

	err = u.setPassword(input.NewPassword)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	u.UpdatedAt = time.Now().UTC()

	err = app.users.updateUser(r.Context(), u)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.sendMail(u.Email, "password_changed.tmpl", map[string]any{"name": u.Name})

	err = writeJSON(w, http.StatusOK, envelope{"message": "password updated successfully"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
