package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshcart/freshcart/internal/auth"
	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/internal/session"
	"github.com/freshcart/freshcart/internal/token"
	"github.com/freshcart/freshcart/internal/user"
)

// AuthService defines the business logic the handlers depend on
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*user.User, error)
	Activate(ctx context.Context, tokenStr string) error
	Login(ctx context.Context, username, password string) (*user.User, error)
}

// RateLimiter guards the credential-handling POST endpoints
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// Handler contains the HTTP handlers for the user pages
type Handler struct {
	service      AuthService
	sessions     session.Store
	rateLimiter  RateLimiter
	renderer     *Renderer
	isProduction bool
	sessionTTL   time.Duration
	rememberTTL  time.Duration
}

func NewHandler(
	service AuthService,
	sessions session.Store,
	rateLimiter RateLimiter,
	renderer *Renderer,
	isProduction bool,
	sessionTTL time.Duration,
	rememberTTL time.Duration,
) *Handler {
	return &Handler{
		service:      service,
		sessions:     sessions,
		rateLimiter:  rateLimiter,
		renderer:     renderer,
		isProduction: isProduction,
		sessionTTL:   sessionTTL,
		rememberTTL:  rememberTTL,
	}
}

// Index renders the landing page, greeting the session user when present
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var username string
	if sessionID, err := session.GetSessionID(r); err == nil {
		if sess, err := h.sessions.Get(r.Context(), sessionID); err == nil {
			username = sess.Username
		}
	}

	h.renderer.Render(w, r, http.StatusOK, "index.html", map[string]any{
		"Username": username,
	})
}

// RegisterForm renders the empty registration form
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "register.html", map[string]any{})
}

// Register handles the registration form submission
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "register", "register.html", map[string]any{}) {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, r, "", "", "invalid form submission")
		return
	}

	in := auth.RegisterInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Email:    r.PostFormValue("email"),
		Allow:    r.PostFormValue("allow"),
	}

	newUser, err := h.service.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrIncompleteData),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrAgreementNotAccepted),
			errors.Is(err, auth.ErrUsernameTaken):
			logger.Warn("registration rejected", "reason", err.Error())
			h.renderRegisterError(w, r, in.Username, in.Email, err.Error())
		default:
			logger.Error("registration failed", "error", err.Error())
			h.renderRegisterError(w, r, in.Username, in.Email, "something went wrong, please try again")
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID, "username", newUser.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, username, email, errMsg string) {
	h.renderer.Render(w, r, http.StatusOK, "register.html", map[string]any{
		"Username": username,
		"Email":    email,
		"ErrMsg":   errMsg,
	})
}

// Activate handles the activation link from the email
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	tokenStr := chi.URLParam(r, "token")

	err := h.service.Activate(r.Context(), tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			logger.Warn("activation link expired")
			respondText(w, http.StatusBadRequest, "The activation link has expired.")
		case errors.Is(err, token.ErrTokenInvalid):
			logger.Warn("activation link invalid")
			respondText(w, http.StatusBadRequest, "The activation link is invalid.")
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("activation for unknown user")
			respondText(w, http.StatusNotFound, "Account not found.")
		default:
			logger.Error("activation failed", "error", err.Error())
			respondText(w, http.StatusInternalServerError, "Activation failed, please try again later.")
		}
		return
	}

	logger.Info("account activated")
	http.Redirect(w, r, "/user/login", http.StatusSeeOther)
}

// LoginForm renders the login form, pre-filled from the remember-me cookie
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	username := session.RememberedUsername(r)
	checked := ""
	if username != "" {
		checked = "checked"
	}

	h.renderer.Render(w, r, http.StatusOK, "login.html", map[string]any{
		"Username": username,
		"Checked":  checked,
		"Next":     r.URL.Query().Get("next"),
	})
}

// Login handles the login form submission
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "login", "login.html", map[string]any{}) {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "", "invalid form submission")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("pwd")
	remember := r.PostFormValue("remember")

	loggedIn, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrIncompleteData),
			errors.Is(err, auth.ErrInvalidCredentials),
			errors.Is(err, auth.ErrAccountNotActivated):
			logger.Warn("login rejected", "reason", err.Error())
			h.renderLoginError(w, r, username, err.Error())
		default:
			logger.Error("login failed", "error", err.Error())
			h.renderLoginError(w, r, username, "something went wrong, please try again")
		}
		return
	}

	sess, err := h.sessions.Create(r.Context(), loggedIn.ID, loggedIn.Username)
	if err != nil {
		logger.Error("failed to create session", "error", err.Error())
		h.renderLoginError(w, r, username, "something went wrong, please try again")
		return
	}

	session.SetSessionCookie(w, sess.ID, h.isProduction, h.sessionTTL)

	if remember == "on" {
		session.SetRememberCookie(w, loggedIn.Username, h.rememberTTL)
	} else {
		session.ClearRememberCookie(w)
	}

	logger.Info("user logged in", "user_id", loggedIn.ID, "username", loggedIn.Username)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, username, errMsg string) {
	h.renderer.Render(w, r, http.StatusOK, "login.html", map[string]any{
		"Username": username,
		"ErrMsg":   errMsg,
		"Next":     r.URL.Query().Get("next"),
	})
}

// Logout destroys the session and clears the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if sess, ok := SessionFromContext(r.Context()); ok {
		if err := h.sessions.Destroy(r.Context(), sess.ID); err != nil {
			logger.Warn("failed to destroy session", "error", err.Error())
		}
	}

	session.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AccountInfo renders the account-center overview page
func (h *Handler) AccountInfo(w http.ResponseWriter, r *http.Request) {
	h.renderAccountPage(w, r, "user_center_info.html", "user")
}

// AccountOrders renders the order-history page
func (h *Handler) AccountOrders(w http.ResponseWriter, r *http.Request) {
	h.renderAccountPage(w, r, "user_center_order.html", "order")
}

// AccountAddresses renders the address-book page
func (h *Handler) AccountAddresses(w http.ResponseWriter, r *http.Request) {
	h.renderAccountPage(w, r, "user_center_site.html", "address")
}

func (h *Handler) renderAccountPage(w http.ResponseWriter, r *http.Request, name, page string) {
	var username string
	if sess, ok := SessionFromContext(r.Context()); ok {
		username = sess.Username
	}

	h.renderer.Render(w, r, http.StatusOK, name, map[string]any{
		"Page":     page,
		"Username": username,
	})
}

// limited applies the rate limit for the given purpose. It writes the
// response itself and returns true when the request must not proceed.
func (h *Handler) limited(w http.ResponseWriter, r *http.Request, purpose, templateName string, data map[string]any) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		data["ErrMsg"] = "too many requests, please try again later"
		h.renderer.Render(w, r, http.StatusTooManyRequests, templateName, data)
		return true
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// redirectTarget resolves the post-login destination. Only same-site
// relative paths are honoured; anything else falls back to the landing
// page.
func redirectTarget(r *http.Request) string {
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// getClientIP extracts the client IP; the RealIP middleware has already
// resolved forwarding headers into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
