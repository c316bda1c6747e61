package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/internal/signup/service"
	"github.com/microscopium/signup/pkg/slogx"
)

const sessionCookieName = "signup_session"

const (
	genericFailureMessage = "Account creation failed. Please try again later or contact the server administrator."
	duplicateMessage      = "This form has already been submitted. Reload the page to start again."
)

// SignupHandler serves the HTML signup form: GET renders it, POST submits
// it.
type SignupHandler struct {
	ProvisionService *service.ProvisionService
	NonceService     *service.NonceService
	HelpMessage      string
	Version          string
}

// HandleGet renders an empty signup form with a fresh session and nonce.
func (h *SignupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID, nonce, err := h.NonceService.Begin(ctx)
	if err != nil {
		log.Error("failed to begin signup session", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, sessionID)
	render(w, r, http.StatusOK, "index.html", formPage{
		Nonce:       nonce,
		HelpMessage: h.HelpMessage,
		Version:     h.Version,
	})
}

// HandlePost consumes the form nonce, validates the submitted fields and
// runs the provisioning sequence. Any fatal failure redisplays the form
// with a generic banner; internal detail stays in the logs.
func (h *SignupHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	values := domain.SignupRequest{
		FirstName:   r.FormValue("firstname"),
		LastName:    r.FormValue("lastname"),
		Institution: r.FormValue("institution"),
		Email:       r.FormValue("email"),
	}

	// The nonce is spent before anything else happens, success or not, so
	// a browser retry of the same POST never reaches the remote server.
	sessionID := sessionIDFromRequest(r)
	if err := h.NonceService.Consume(ctx, sessionID, r.FormValue("nonce")); err != nil {
		if errors.Is(err, service.ErrDuplicateSubmission) {
			log.Warn("duplicate form submission rejected")
			h.redisplay(w, r, http.StatusOK, values, nil, duplicateMessage)
			return
		}
		log.Error("failed to consume form nonce", slog.Any("error", err))
		h.redisplay(w, r, http.StatusInternalServerError, values, nil, genericFailureMessage)
		return
	}

	if err := values.Validate(); err != nil {
		var fields domain.FieldErrors
		if errors.As(err, &fields) {
			h.redisplay(w, r, http.StatusOK, values, fields, "")
			return
		}
		log.Error("validation failed unexpectedly", slog.Any("error", err))
		h.redisplay(w, r, http.StatusInternalServerError, values, nil, genericFailureMessage)
		return
	}

	account, err := h.ProvisionService.Provision(ctx, values)
	switch {
	case err == nil:
		render(w, r, http.StatusOK, "acknowledge.html", ackPage{
			Login:     account.Login,
			Email:     account.Email,
			Password:  account.Password,
			EmailSent: h.ProvisionService.Email.Enabled,
			Version:   h.Version,
		})

	case errors.Is(err, service.ErrNotificationFailed):
		// The account exists; the user needs to know the email never came.
		render(w, r, http.StatusOK, "acknowledge.html", ackPage{
			Login:       account.Login,
			Email:       account.Email,
			EmailFailed: true,
			Version:     h.Version,
		})

	case errors.Is(err, service.ErrDuplicateLogin):
		h.redisplay(w, r, http.StatusConflict, values, nil,
			"Someone signed up with a very similar name at the same time. Please try again.")

	default:
		// ErrAdminConnectionFailed, ErrGroupResolutionFailed,
		// ErrAllocationExhausted, ErrAccountCreationFailed: all fatal for
		// this request, all already logged with detail by the provisioner.
		h.redisplay(w, r, http.StatusInternalServerError, values, nil, genericFailureMessage)
	}
}

// redisplay renders the form again with a fresh nonce, keeping the
// submitted values and attaching either field errors or a generic banner.
func (h *SignupHandler) redisplay(
	w http.ResponseWriter,
	r *http.Request,
	code int,
	values domain.SignupRequest,
	fields domain.FieldErrors,
	banner string,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := sessionIDFromRequest(r)
	var nonce string
	var err error

	if sessionID == "" {
		sessionID, nonce, err = h.NonceService.Begin(ctx)
		if err == nil {
			setSessionCookie(w, sessionID)
		}
	} else {
		nonce, err = h.NonceService.Issue(ctx, sessionID)
	}
	if err != nil {
		log.Error("failed to issue replacement nonce", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	render(w, r, code, "index.html", formPage{
		Nonce:       nonce,
		Values:      values,
		FieldErrors: fields,
		Error:       banner,
		HelpMessage: h.HelpMessage,
		Version:     h.Version,
	})
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
