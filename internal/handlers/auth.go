package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Image    string `json:"image"`
}

// Register creates an account and answers with a signed session token.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation(nil))
		return
	}
	if err := checkStruct(req); err != nil {
		writeError(w, err)
		return
	}

	token, err := a.Auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a signed session token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation(nil))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperr.Invalid("Email or password were not provided"))
		return
	}

	token, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}
