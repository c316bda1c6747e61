package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/internal/signup/service"
	"github.com/microscopium/signup/pkg/httpx"
	"github.com/microscopium/signup/pkg/slogx"
)

// APISignupHandler exposes provisioning as a JSON endpoint for
// programmatic clients such as workshop batch tooling.
type APISignupHandler struct {
	ProvisionService *service.ProvisionService
}

type apiSignupRequest struct {
	FirstName   string `json:"firstname" example:"Ada"`
	LastName    string `json:"lastname" example:"Lovelace"`
	Institution string `json:"institution,omitempty" example:"Analytical Engines Ltd"`
	Email       string `json:"email" example:"ada@example.org"`
}

type apiSignupResponse struct {
	Login     string `json:"login" example:"AdaLovelace"`
	Email     string `json:"email" example:"ada@example.org"`
	Password  string `json:"password,omitempty" example:"k3WpT9qLx2Bd"`
	EmailSent bool   `json:"email_sent"`

	// EmailFailed is set when the account was created but the credential
	// email could not be delivered.
	EmailFailed bool `json:"email_failed,omitempty"`
}

type apiErrorResponse struct {
	Error  string            `json:"error" example:"account creation failed"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HandleCreate provisions an account from a JSON request body.
//
//	@Summary		Create a signup account
//	@Description	Validates the submitted details and provisions an
//	@Description	experimenter on the configured remote server. When email
//	@Description	delivery is disabled or fails, the generated password is
//	@Description	handled as described by the email_sent and email_failed
//	@Description	fields.
//	@Tags			signup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apiSignupRequest	true	"Signup details"
//	@Success		201		{object}	apiSignupResponse
//	@Failure		400		{object}	apiErrorResponse
//	@Failure		409		{object}	apiErrorResponse
//	@Failure		502		{object}	apiErrorResponse
//	@Router			/api/v1/signups [post]
func (h *APISignupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body apiSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, apiErrorResponse{
			Error: "invalid JSON body",
		})
		return
	}

	req := domain.SignupRequest{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Institution: body.Institution,
		Email:       body.Email,
	}
	if err := req.Validate(); err != nil {
		var fields domain.FieldErrors
		if errors.As(err, &fields) {
			httpx.WriteJSON(w, http.StatusBadRequest, apiErrorResponse{
				Error:  "validation failed",
				Fields: fields,
			})
			return
		}
		log.Error("validation failed unexpectedly", slog.Any("error", err))
		httpx.WriteJSON(w, http.StatusInternalServerError, apiErrorResponse{
			Error: "internal server error",
		})
		return
	}

	account, err := h.ProvisionService.Provision(ctx, req)
	switch {
	case err == nil:
		resp := apiSignupResponse{
			Login:     account.Login,
			Email:     account.Email,
			EmailSent: h.ProvisionService.Email.Enabled,
		}
		if !resp.EmailSent {
			resp.Password = account.Password
		}
		httpx.WriteJSON(w, http.StatusCreated, resp)

	case errors.Is(err, service.ErrNotificationFailed):
		// Creation succeeded, only delivery failed. Still a 201: the
		// account exists and must not be silently retried.
		httpx.WriteJSON(w, http.StatusCreated, apiSignupResponse{
			Login:       account.Login,
			Email:       account.Email,
			EmailSent:   false,
			EmailFailed: true,
		})

	case errors.Is(err, service.ErrDuplicateLogin):
		httpx.WriteJSON(w, http.StatusConflict, apiErrorResponse{
			Error: "login collided with a concurrent signup, retry the request",
		})

	default:
		httpx.WriteJSON(w, http.StatusBadGateway, apiErrorResponse{
			Error: "account creation failed",
		})
	}
}
