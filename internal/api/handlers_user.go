package api

import (
	"net/http"
	"time"

	"github.com/randalmurphal/pulseboard/internal/auth"
	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
)

// stateTTL bounds how long a pending OAuth state token stays valid.
const stateTTL = 10 * time.Minute

// handleGetUser returns the signed-in identity or 401.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.currentUser(r)
	if !ok {
		HandleError(w, pberrors.ErrNotAuthenticated())
		return
	}
	JSONResponse(w, identity)
}

// handleLogin redirects the browser to the provider consent page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.flow.Configured() {
		HandleError(w, pberrors.ErrAuthNotConfigured())
		return
	}

	state := auth.NewState()
	s.statesMu.Lock()
	s.states[state] = time.Now().Add(stateTTL)
	s.statesMu.Unlock()

	http.Redirect(w, r, s.flow.AuthURL(state), http.StatusFound)
}

// handleCallback finishes the OAuth flow and sets the session cookie.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if !s.consumeState(state) {
		JSONError(w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		JSONError(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	identity, err := s.flow.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("oauth exchange failed", "error", err)
		JSONError(w, "sign-in failed", http.StatusBadGateway)
		return
	}

	sessionID := s.sessions.Create(identity)
	http.SetCookie(w, &http.Cookie{
		Name:     s.appConfig.Auth.CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Info("user signed in", "name", identity.Name)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout deletes the session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.appConfig.Auth.CookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.appConfig.Auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	NoContent(w)
}

// currentUser resolves the request's session cookie.
func (s *Server) currentUser(r *http.Request) (auth.Identity, bool) {
	cookie, err := r.Cookie(s.appConfig.Auth.CookieName)
	if err != nil {
		return auth.Identity{}, false
	}
	return s.sessions.Get(cookie.Value)
}

// consumeState validates and removes a pending state token.
func (s *Server) consumeState(state string) bool {
	if state == "" {
		return false
	}
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}
