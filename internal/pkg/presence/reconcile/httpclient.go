package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// HTTP clients for the presence API, used by browsers' native counterparts and
// by Go clients embedding the reconciliation machine.

// HTTPAuthorizer calls the channel authorization endpoint to obtain grants.
type HTTPAuthorizer struct {
	BaseURL string // e.g. http://host/api/v1
	UserID  string
	Client  *http.Client
}

var _ Authorizer = (*HTTPAuthorizer)(nil)

func (a *HTTPAuthorizer) Authorize(ctx context.Context, socketID, channel string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"user_id":      a.UserID,
		"socket_id":    socketID,
		"channel_name": channel,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/presence/channel-auth", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reconcile: channel auth failed with status %d", resp.StatusCode)
	}

	var out struct {
		Auth string `json:"auth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Auth, nil
}

func (a *HTTPAuthorizer) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

// HTTPLister polls the listMembers endpoint, the source of truth while in
// Polling mode.
type HTTPLister struct {
	BaseURL string
	Client  *http.Client
}

var _ MemberLister = (*HTTPLister)(nil)

func (l *HTTPLister) ListMembers(ctx context.Context, roomID string) ([]presence.Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"/rooms/"+roomID+"/members", nil)
	if err != nil {
		return nil, err
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reconcile: list members failed with status %d", resp.StatusCode)
	}

	var out struct {
		Members []presence.Member `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Members, nil
}
