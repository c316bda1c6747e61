package scopesdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestClient points a Client at an httptest server.
func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		PollAttempts: 3,
		PollInterval: 1 * time.Millisecond,
	}
}

func TestClientLogin(t *testing.T) {
	t.Parallel()

	t.Run("successful login returns an authenticated session", func(t *testing.T) {
		var authHeader string

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "root", req.Username)
			require.Equal(t, "secret", req.Password)

			_ = json.NewEncoder(w).Encode(map[string]string{"session_key": "sess-123"})
		})
		mux.HandleFunc("POST /api/v0/logout", func(w http.ResponseWriter, r *http.Request) {
			authHeader = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := newTestClient(srv)
		sess, err := client.Login(context.Background(), "root", "secret")
		require.NoError(t, err)

		require.NoError(t, sess.Logout(context.Background()))
		require.Equal(t, "Bearer sess-123", authHeader)
	})

	t.Run("missing session key is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer srv.Close()

		_, err := newTestClient(srv).Login(context.Background(), "root", "secret")
		require.Error(t, err)
	})

	t.Run("rejected credentials surface as APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code": "invalid_credentials", "message": "bad login",
			})
		}))
		defer srv.Close()

		_, err := newTestClient(srv).Login(context.Background(), "root", "wrong")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.Status)
		require.Equal(t, "invalid_credentials", apiErr.Code)
	})
}

func TestClientPing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v0", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).Ping(context.Background()))
}

// sessionFor logs in against a mux that serves the login endpoint.
func sessionFor(t *testing.T, mux *http.ServeMux, srv *httptest.Server) *AdminSession {
	t.Helper()

	mux.HandleFunc("POST /api/v0/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"session_key": "sess"})
	})

	sess, err := newTestClient(srv).Login(context.Background(), "root", "secret")
	require.NoError(t, err)
	return sess
}

func TestSessionLookups(t *testing.T) {
	t.Parallel()

	t.Run("experimenter found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v0/experimenters", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "jbloggs", r.URL.Query().Get("login"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": 5, "login": "jbloggs"}},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		exp, err := sess.FindExperimenterByLogin(context.Background(), "jbloggs")
		require.NoError(t, err)
		require.Equal(t, int64(5), exp.ID)
	})

	t.Run("empty result list is ErrNotFound", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v0/experimenters", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		})
		mux.HandleFunc("GET /api/v0/groups", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		_, err := sess.FindExperimenterByLogin(context.Background(), "nobody")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = sess.FindGroupByName(context.Background(), "nogroup")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("group found by exact name", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v0/groups", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "lab a", r.URL.Query().Get("name"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": 3, "name": "lab a"}},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		g, err := sess.FindGroupByName(context.Background(), "lab a")
		require.NoError(t, err)
		require.Equal(t, int64(3), g.ID)
	})
}

func TestSessionCreates(t *testing.T) {
	t.Parallel()

	t.Run("create experimenter returns id", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/experimenters", func(w http.ResponseWriter, r *http.Request) {
			var req NewExperimenter
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "jbloggs", req.Login)
			require.True(t, req.IsActive)

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": 77})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		id, err := sess.CreateExperimenter(context.Background(), NewExperimenter{
			Login: "jbloggs", IsActive: true,
		})
		require.NoError(t, err)
		require.Equal(t, int64(77), id)
	})

	t.Run("duplicate login create is a conflict", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/experimenters", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code": "conflict", "message": "login exists",
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		_, err := sess.CreateExperimenter(context.Background(), NewExperimenter{Login: "taken"})
		require.True(t, IsConflict(err))
	})

	t.Run("create group posts name and permissions", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/groups", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Name        string `json:"name"`
				Permissions string `json:"permissions"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "lab a", req.Name)
			require.Equal(t, "rw----", req.Permissions)

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": 12})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		id, err := sess.CreateGroup(context.Background(), "lab a", "rw----")
		require.NoError(t, err)
		require.Equal(t, int64(12), id)
	})
}

func TestSessionSendEmail(t *testing.T) {
	t.Parallel()

	t.Run("polls until the job completes", func(t *testing.T) {
		statuses := []string{"queued", "running", "completed"}
		checks := 0

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/notifications", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		})
		mux.HandleFunc("GET /api/v0/notifications/job-1", func(w http.ResponseWriter, r *http.Request) {
			status := statuses[checks]
			checks++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":            status,
				"invalid_addresses": []string{"bad@example.org"},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		outcome, err := sess.SendEmail(context.Background(), EmailRequest{
			Subject: "s", Body: "b", UserIDs: []int64{1},
		})
		require.NoError(t, err)
		require.Equal(t, 3, checks)
		require.Equal(t, []string{"bad@example.org"}, outcome.Invalid)
	})

	t.Run("failed job is an error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/notifications", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-2"})
		})
		mux.HandleFunc("GET /api/v0/notifications/job-2", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "failed", "error": "smtp down",
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		_, err := sess.SendEmail(context.Background(), EmailRequest{Subject: "s", Body: "b"})
		require.ErrorContains(t, err, "smtp down")
	})

	t.Run("gives up after the poll budget", func(t *testing.T) {
		checks := 0

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/notifications", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-3"})
		})
		mux.HandleFunc("GET /api/v0/notifications/job-3", func(w http.ResponseWriter, r *http.Request) {
			checks++
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		_, err := sess.SendEmail(context.Background(), EmailRequest{Subject: "s", Body: "b"})
		require.Error(t, err)
		require.Equal(t, 3, checks)
	})

	t.Run("missing job id is an error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v0/notifications", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		sess := sessionFor(t, mux, srv)

		_, err := sess.SendEmail(context.Background(), EmailRequest{Subject: "s", Body: "b"})
		require.Error(t, err)
	})
}
