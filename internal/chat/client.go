// Package chat posts messages to a Zulip stream over the REST API.
package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	messagesPath = "/api/v1/messages"
	ownUserPath  = "/api/v1/users/me"
)

// Client posts stream messages to a Zulip server using a bot's email and
// API key.
type Client struct {
	Site   string
	Email  string
	APIKey string
	Stream string

	HTTPClient *http.Client
}

type apiResponse struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	Code   string `json:"code"`
}

// Verify checks the site and credentials by fetching the bot's own profile,
// so a bad endpoint or API key aborts a run before any mail is touched.
func (c *Client) Verify(ctx context.Context) error {
	endpoint := strings.TrimRight(c.Site, "/") + ownUserPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Email, c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "connecting to Zulip")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("Zulip auth check returned status %s", resp.Status)
	}
	return nil
}

// Post sends a stream message and returns nil only when Zulip acknowledged
// it. A non-2xx status or a non-success API result is an error carrying
// Zulip's own code and message.
func (c *Client) Post(ctx context.Context, topic, content string) error {
	if strings.TrimSpace(c.Site) == "" {
		return errors.New("Zulip site is required")
	}
	if strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.APIKey) == "" {
		return errors.New("Zulip credentials are required")
	}

	form := url.Values{}
	form.Set("type", "stream")
	form.Set("to", c.Stream)
	form.Set("topic", topic)
	form.Set("content", content)

	endpoint := strings.TrimRight(c.Site, "/") + messagesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Email, c.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "posting to Zulip")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "reading Zulip response")
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.Errorf("Zulip returned status %s", resp.Status)
		}
		return errors.Wrap(err, "decoding Zulip response")
	}

	if parsed.Result != "success" {
		return errors.Errorf("failed to send message to Zulip: %s: %s", parsed.Code, parsed.Msg)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
