package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/internal/signup/service"
	"github.com/microscopium/signup/pkg/scopesdk"
	"github.com/stretchr/testify/require"
)

func newAPIHandler(dir *fakeDirectory) *APISignupHandler {
	return &APISignupHandler{
		ProvisionService: &service.ProvisionService{
			Connector:       &fakeConnector{dir: dir},
			Group:           domain.GroupDescriptor{Name: "screening", Permissions: "rw----"},
			MemberGroupName: "user",
		},
	}
}

func postJSON(h *APISignupHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signups", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

const validJSON = `{
	"firstname": "Ada",
	"lastname": "Lovelace",
	"institution": "Analytical Engines Ltd",
	"email": "ada@example.org"
}`

func TestAPISignupHandler(t *testing.T) {
	t.Parallel()

	t.Run("valid request returns credentials", func(t *testing.T) {
		dir := newFakeDirectory()
		h := newAPIHandler(dir)

		rec := postJSON(h, validJSON)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp apiSignupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "AdaLovelace", resp.Login)
		require.Equal(t, "ada@example.org", resp.Email)
		require.NotEmpty(t, resp.Password)
		require.False(t, resp.EmailSent)
		require.Equal(t, 1, dir.creates)
	})

	t.Run("email enabled omits the password", func(t *testing.T) {
		dir := newFakeDirectory()
		h := newAPIHandler(dir)
		h.ProvisionService.Email = service.EmailSettings{
			Enabled: true, Subject: "s", Body: "b",
		}

		rec := postJSON(h, validJSON)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp apiSignupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Empty(t, resp.Password)
		require.True(t, resp.EmailSent)
	})

	t.Run("email failure marks the account as created anyway", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.sendEmailErr = context.DeadlineExceeded
		h := newAPIHandler(dir)
		h.ProvisionService.Email = service.EmailSettings{
			Enabled: true, Subject: "s", Body: "b",
		}

		rec := postJSON(h, validJSON)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp apiSignupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "AdaLovelace", resp.Login)
		require.Empty(t, resp.Password)
		require.False(t, resp.EmailSent)
		require.True(t, resp.EmailFailed)
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		rec := postJSON(newAPIHandler(newFakeDirectory()), `{"firstname":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failures list field messages", func(t *testing.T) {
		dir := newFakeDirectory()
		rec := postJSON(newAPIHandler(dir), `{"firstname": "Ada", "email": "nope"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp apiErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Field must not be empty", resp.Fields["lastname"])
		require.Equal(t, "Enter a valid email address", resp.Fields["email"])
		require.Equal(t, 0, dir.creates)
	})

	t.Run("remote failure is a 502 without detail", func(t *testing.T) {
		h := newAPIHandler(newFakeDirectory())
		h.ProvisionService.Connector = &fakeConnector{err: context.DeadlineExceeded}

		rec := postJSON(h, validJSON)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.NotContains(t, rec.Body.String(), "deadline")
	})

	t.Run("lost create race is a 409", func(t *testing.T) {
		h := newAPIHandler(newFakeDirectory())
		h.ProvisionService.Connector = conflictConnector{dir: newFakeDirectory()}

		rec := postJSON(h, validJSON)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

// conflictDirectory fails every experimenter create with HTTP 409.
type conflictDirectory struct {
	*fakeDirectory
}

func (d *conflictDirectory) CreateExperimenter(ctx context.Context, req scopesdk.NewExperimenter) (int64, error) {
	return 0, &scopesdk.APIError{Status: http.StatusConflict, Message: "login exists"}
}

type conflictConnector struct {
	dir *fakeDirectory
}

func (c conflictConnector) Connect(ctx context.Context) (service.AdminDirectory, error) {
	return &conflictDirectory{fakeDirectory: c.dir}, nil
}
