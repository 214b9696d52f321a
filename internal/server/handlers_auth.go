// internal/server/handlers_auth.go
package server

import (
	"net/http"
	"time"

	"adstrategy-service/internal/auth"
	apperrors "adstrategy-service/internal/common/errors"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// handleSignUp creates the account and opens a session in one step, the way
// account creation immediately signs the user in.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	if _, err := s.auth.SignUp(r.Context(), req.Email, req.Password); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	session, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	s.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	session, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	s.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context(), auth.TokenFrom(r)); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}
	s.setSessionCookie(w, "", time.Unix(0, 0))
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.errors.WriteError(w, r, apperrors.NewUnauthorizedError("no identity in context"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"userId": session.UserID,
		"email":  session.Email,
	})
}
