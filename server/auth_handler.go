package server

import (
	"context"
	"net/http"
	"time"

	"hourtrim/core/auth"
	"hourtrim/logger"
	"hourtrim/metrics"

	"github.com/gorilla/mux"
)

// LoginPath is where the session gate sends unauthenticated page requests.
const LoginPath = "/login"

// CredentialsRequest is the signup and login request body.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GateMode selects how the session gate answers a request without a valid token.
type GateMode int

const (
	// GateRedirect answers 302 to the login page (pages and downloads).
	GateRedirect GateMode = iota
	// GateReject answers 401 JSON (API calls made by scripts).
	GateReject
)

type contextKey string

const claimsKey contextKey = "claims"

// SignupHandler handles POST /api/auth/signup.
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	decodeJSON(w, r, &req)

	if err := h.creds.Signup(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, r, err, "Signup failed")
		return
	}
	writeMessage(w, http.StatusCreated, "Signup successful")
}

// LoginHandler handles POST /api/auth/login and sets the session cookie.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	decodeJSON(w, r, &req)

	// empty credentials fall through to the same 401 as wrong ones
	token, err := h.creds.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err, "Login failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.tokens.TTL()))
	writeMessage(w, http.StatusOK, "Login successful")
}

// LogoutHandler clears the session cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	writeMessage(w, http.StatusOK, "Logout successful")
}

// MeHandler returns the identity carried by the session token.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       claims.UserID,
		"username": claims.Username,
	})
}

// sessionCookie builds the authToken cookie. A negative maxAge deletes it.
func (h *APIHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge / time.Second)
	}
	return c
}

// SessionGate admits requests carrying a valid session cookie and stores the
// token claims in the request context. It does not check that the user still
// exists.
func (h *APIHandler) SessionGate(mode GateMode) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				h.rejectSession(w, r, mode, "missing token")
				return
			}

			claims, err := h.tokens.ParseToken(cookie.Value)
			if err != nil {
				h.rejectSession(w, r, mode, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *APIHandler) rejectSession(w http.ResponseWriter, r *http.Request, mode GateMode, reason string) {
	metrics.ObserveGateRejection()
	logger.Debug("[SessionGate] rejected",
		logger.String("path", r.URL.Path),
		logger.String("reason", reason))

	if mode == GateReject {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// ClaimsFromContext returns the session claims set by SessionGate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// usernameFromContext returns the session user or "" outside the gate.
func usernameFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Username
	}
	return ""
}
