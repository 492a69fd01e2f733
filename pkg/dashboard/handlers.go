package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/gateway"
	"github.com/otot/posdash/pkg/locale"
	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
)

type loginForm struct {
	auth.Prefill
	ReturnURL string `json:"returnUrl,omitempty"`
	Language  string `json:"language"`
	RTL       bool   `json:"rtl"`
}

type loginRequest struct {
	auth.Form
	ReturnURL string `json:"returnUrl,omitempty"`
}

type loginResponse struct {
	Destination string       `json:"destination"`
	Session     *sessionView `json:"session"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language string `json:"language"`
	RTL      bool   `json:"rtl"`
	Message  string `json:"message"`
}

type messageResponse struct {
	Message     string `json:"message"`
	Destination string `json:"destination,omitempty"`
}

type pageResponse struct {
	Path     string       `json:"path"`
	Language string       `json:"language"`
	RTL      bool         `json:"rtl"`
	Session  *sessionView `json:"session"`
}

// sessionView is the session as shown to the browser. The token never
// leaves the process.
type sessionView struct {
	AuthorizedUserID   int64         `json:"authorizedUserId"`
	AuthorizationLevel string        `json:"authorizationLevel"`
	AccountType        string        `json:"accountType"`
	MainApp            string        `json:"mainApp"`
	User               *session.User `json:"user,omitempty"`
}

func newSessionView(rec *session.Record) *sessionView {
	if !rec.IsAuthenticated() {
		return nil
	}
	return &sessionView{
		AuthorizedUserID:   rec.AuthorizedUserID,
		AuthorizationLevel: rec.AuthorizationLevel.String(),
		AccountType:        rec.AccountType().String(),
		MainApp:            navigation.MainAppPath(rec.AccountType()),
		User:               rec.User,
	}
}

func (s *Server) language(ctx context.Context) string {
	return s.prefs.Get(ctx)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := s.language(r.Context())
	form := loginForm{
		Prefill:  s.ctrl.Prefill(r.Context(), q.Get("systemId")),
		Language: lang,
		RTL:      locale.IsRTL(lang),
	}
	if ret := q.Get(navigation.ReturnURLParam); ret != "" {
		form.ReturnURL = navigation.ReturnTarget(ret)
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := s.ctrl.Submit(r.Context(), req.Form, req.ReturnURL)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Destination: res.Destination,
		Session:     newSessionView(res.Record),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Logout(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{
		Message:     s.catalog.T(s.language(r.Context()), "session.logged_out"),
		Destination: navigation.LoginPath,
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ForgotForm
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := s.ctrl.ForgotPassword(r.Context(), req); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: s.catalog.T(s.language(r.Context()), "forgot.sent", "destination", req.Destination),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view := newSessionView(s.store.Get(r.Context()))
	if view == nil {
		writeError(w, http.StatusUnauthorized, &errorDetail{
			Code:    "unauthenticated",
			Message: s.catalog.T(s.language(r.Context()), "session.expired"),
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	lang, err := s.prefs.Set(r.Context(), req.Language)
	switch {
	case errors.Is(err, locale.ErrLanguageNotSupported):
		writeError(w, http.StatusUnprocessableEntity, &errorDetail{Code: "language_not_supported", Message: err.Error()})
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "failed to store language", logger.Error(err))
		writeError(w, http.StatusInternalServerError, &errorDetail{Code: "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, languageResponse{
		Language: lang,
		RTL:      locale.IsRTL(lang),
		Message:  s.catalog.T(lang, "language.changed"),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	lang := s.language(r.Context())
	writeJSON(w, http.StatusOK, pageResponse{
		Path:     r.URL.Path,
		Language: lang,
		RTL:      locale.IsRTL(lang),
		Session:  newSessionView(s.store.Get(r.Context())),
	})
}

// writeAuthError answers a failed login or forgot password request with
// the localized message and a stable code.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	lang := s.language(r.Context())

	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		details := make(map[string][]string, len(ve.Fields))
		for _, fe := range ve.Fields {
			details[fe.Field] = append(details[fe.Field], fe.Message(s.catalog, lang))
		}
		writeError(w, http.StatusUnprocessableEntity, &errorDetail{
			Code:    "validation_error",
			Message: s.catalog.T(lang, "form.invalid", "field", "form"),
			Details: details,
		})
		return
	}

	status, code := authStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WarnContext(r.Context(), "backend request failed", logger.Error(err))
	}
	writeError(w, status, &errorDetail{Code: code, Message: s.catalog.Message(lang, err)})
}

var authStatuses = []struct {
	kind   error
	status int
	code   string
}{
	{gateway.ErrInvalidSystemCredentials, http.StatusUnauthorized, "invalid_system_credentials"},
	{gateway.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{gateway.ErrAccessDenied, http.StatusForbidden, "access_denied"},
	{gateway.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{gateway.ErrSystemNotFound, http.StatusNotFound, "system_not_found"},
	{gateway.ErrInvalidDestination, http.StatusUnprocessableEntity, "invalid_destination"},
	{gateway.ErrProfileUnavailable, http.StatusBadGateway, "profile_unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

func authStatus(err error) (int, string) {
	for _, as := range authStatuses {
		if errors.Is(err, as.kind) {
			return as.status, as.code
		}
	}
	return http.StatusBadGateway, "server_error"
}
