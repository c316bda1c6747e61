package scopesdk

import (
	"context"
	"net/http"
	"net/url"
)

// AdminSession is an authenticated administrative session. It is returned by
// Client.Login and is valid until Logout or server-side expiry.
type AdminSession struct {
	client     *Client
	sessionKey string
}

// Logout closes the session on the server. The session must not be used
// afterwards.
func (s *AdminSession) Logout(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/api/v0/logout", nil, s.sessionKey)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	return checkStatus(resp)
}

// FindExperimenterByLogin looks up an experimenter by its login name.
// Returns ErrNotFound when no account uses the login.
func (s *AdminSession) FindExperimenterByLogin(ctx context.Context, login string) (Experimenter, error) {
	path := "/api/v0/experimenters?login=" + url.QueryEscape(login)

	var body experimenterListResponse
	if err := s.client.getJSON(ctx, path, &body, s.sessionKey); err != nil {
		return Experimenter{}, err
	}
	if len(body.Data) == 0 {
		return Experimenter{}, ErrNotFound
	}
	return body.Data[0], nil
}

// FindGroupByName looks up a group by its exact name.
// Returns ErrNotFound when the group does not exist.
func (s *AdminSession) FindGroupByName(ctx context.Context, name string) (Group, error) {
	path := "/api/v0/groups?name=" + url.QueryEscape(name)

	var body groupListResponse
	if err := s.client.getJSON(ctx, path, &body, s.sessionKey); err != nil {
		return Group{}, err
	}
	if len(body.Data) == 0 {
		return Group{}, ErrNotFound
	}
	return body.Data[0], nil
}

// CreateGroup creates a group with the given name and permission token and
// returns its id. Some server versions return id 0 here; callers should
// re-resolve by name when they need a usable id.
func (s *AdminSession) CreateGroup(ctx context.Context, name, permissions string) (int64, error) {
	req := newGroupRequest{Name: name, Permissions: permissions}

	var body createdResponse
	if err := s.client.postJSON(ctx, "/api/v0/groups", req, &body, s.sessionKey); err != nil {
		return 0, err
	}
	return body.ID, nil
}

// CreateExperimenter creates an experimenter record and returns its id.
// The server enforces login uniqueness; a lost probe/create race surfaces
// as an *APIError with HTTP 409 (see IsConflict).
func (s *AdminSession) CreateExperimenter(ctx context.Context, req NewExperimenter) (int64, error) {
	var body createdResponse
	if err := s.client.postJSON(ctx, "/api/v0/experimenters", req, &body, s.sessionKey); err != nil {
		return 0, err
	}
	return body.ID, nil
}
