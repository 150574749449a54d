package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

// HTTPClient implements Client against the notes REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

type apiError struct {
	Error string `json:"error"`
}

type userResponse struct {
	User models.User `json:"user"`
}

type noteResponse struct {
	Note models.Note `json:"note"`
}

type notesResponse struct {
	Notes []models.Note `json:"notes"`
}

type usersResponse struct {
	Users []models.UserSummary `json:"users"`
}

type unlockResponse struct {
	Unlocked bool `json:"unlocked"`
}

// NewHTTPClient returns a client for the service at baseURL
// (e.g. "http://localhost:3000"). timeout bounds every request.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.User, error) {
	var resp userResponse
	body := models.Credentials{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Signup(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", creds, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) ListNotes(ctx context.Context, authorID string) ([]models.Note, error) {
	query := url.Values{}
	query.Set("authorId", authorID)

	var resp notesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/notes?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Notes == nil {
		resp.Notes = []models.Note{}
	}
	return resp.Notes, nil
}

func (c *HTTPClient) CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	var resp noteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/notes", draft, &resp); err != nil {
		return nil, err
	}
	return &resp.Note, nil
}

func (c *HTTPClient) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	var resp noteResponse
	if err := c.doJSON(ctx, http.MethodPut, notePath(id, ""), patch, &resp); err != nil {
		return nil, err
	}
	return &resp.Note, nil
}

func (c *HTTPClient) DeleteNote(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, notePath(id, ""), nil, nil)
}

func (c *HTTPClient) ShareNote(ctx context.Context, id, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodPost, notePath(id, "/share"), body, nil)
}

func (c *HTTPClient) UnlockNote(ctx context.Context, id, password string) (bool, error) {
	var resp unlockResponse
	body := map[string]string{"password": password}
	if err := c.doJSON(ctx, http.MethodPost, notePath(id, "/unlock"), body, &resp); err != nil {
		return false, err
	}
	return resp.Unlocked, nil
}

func (c *HTTPClient) SearchUsers(ctx context.Context, q, currentUserID string) ([]models.UserSummary, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("currentUserId", currentUserID)

	var resp usersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/search/users?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	var resp userResponse
	path := "/api/user/settings/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, http.MethodPut, path, patch, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func notePath(id, suffix string) string {
	return "/api/notes/" + url.PathEscape(id) + suffix
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		return &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportErr(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
