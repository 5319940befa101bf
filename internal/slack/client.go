package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadbot_backend/platform/logger"
)

// Client talks to the Slack Web API over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// post issues a JSON POST to a Web API method and decodes the response into out.
// out must embed apiEnvelope semantics via its own ok/error fields or be nil.
func (c *Client) post(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method, out)
}

// get issues a GET with query parameters to a Web API read method.
func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s request failed: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slack %s read response: %w", method, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("slack %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("slack %s decode response: %w", method, err)
	}
	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.Error}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("slack %s decode response: %w", method, err)
		}
	}

	c.log.Debug("slack call ok", "method", method)
	return nil
}

// APIError is a Slack-level error ("ok": false) with its error code.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

type postMessageResponse struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) (MessageRef, error) {
	var resp postMessageResponse
	err := c.post(ctx, "chat.postMessage", map[string]string{
		"channel": channelID,
		"text":    text,
	}, &resp)
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChannelID: resp.Channel, TS: resp.TS}, nil
}

func (c *Client) PostInThread(ctx context.Context, ref ThreadRef, text string) (MessageRef, error) {
	var resp postMessageResponse
	err := c.post(ctx, "chat.postMessage", map[string]string{
		"channel":   ref.ChannelID,
		"thread_ts": ref.ThreadTS,
		"text":      text,
	}, &resp)
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChannelID: resp.Channel, TS: resp.TS}, nil
}

func (c *Client) AddMarker(ctx context.Context, ref ThreadRef, marker string) error {
	err := c.post(ctx, "reactions.add", map[string]string{
		"channel":   ref.ChannelID,
		"timestamp": ref.ThreadTS,
		"name":      marker,
	}, nil)

	var apiErr *APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.Code == "already_reacted" {
		return nil
	}
	return err
}

type historyMessage struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	TS        string `json:"ts"`
	Reactions []struct {
		Name string `json:"name"`
	} `json:"reactions"`
}

func (m historyMessage) toMessage() Message {
	msg := Message{User: m.User, Text: m.Text, TS: m.TS}
	for _, r := range m.Reactions {
		msg.Reactions = append(msg.Reactions, r.Name)
	}
	return msg
}

type historyResponse struct {
	Messages []historyMessage `json:"messages"`
}

func (c *Client) GetParentMessage(ctx context.Context, ref ThreadRef) (Message, error) {
	params := url.Values{}
	params.Set("channel", ref.ChannelID)
	params.Set("latest", ref.ThreadTS)
	params.Set("inclusive", "true")
	params.Set("limit", "1")

	var resp historyResponse
	if err := c.get(ctx, "conversations.history", params, &resp); err != nil {
		return Message{}, err
	}
	if len(resp.Messages) == 0 {
		return Message{}, ErrNotFound
	}
	return resp.Messages[0].toMessage(), nil
}

func (c *Client) GetThreadMessages(ctx context.Context, ref ThreadRef) ([]Message, error) {
	params := url.Values{}
	params.Set("channel", ref.ChannelID)
	params.Set("ts", ref.ThreadTS)

	var resp historyResponse
	if err := c.get(ctx, "conversations.replies", params, &resp); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, m.toMessage())
	}
	return messages, nil
}

type userInfoResponse struct {
	User struct {
		RealName string `json:"real_name"`
		Name     string `json:"name"`
	} `json:"user"`
}

func (c *Client) ResolveUserDisplayName(ctx context.Context, userID string) (string, error) {
	params := url.Values{}
	params.Set("user", userID)

	var resp userInfoResponse
	if err := c.get(ctx, "users.info", params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "user_not_found" {
			return "", ErrNotFound
		}
		return "", err
	}

	if resp.User.RealName != "" {
		return resp.User.RealName, nil
	}
	return resp.User.Name, nil
}

type createChannelResponse struct {
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

func (c *Client) CreatePrivateSpace(ctx context.Context, name string) (string, error) {
	var resp createChannelResponse
	err := c.post(ctx, "conversations.create", map[string]any{
		"name":       name,
		"is_private": true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Channel.ID, nil
}

func (c *Client) Invite(ctx context.Context, channelID, userID string) error {
	return c.post(ctx, "conversations.invite", map[string]string{
		"channel": channelID,
		"users":   userID,
	}, nil)
}

func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	// Slack opens the IM lazily when a bot posts to a user ID directly.
	_, err := c.PostMessage(ctx, userID, text)
	return err
}

// Compile-time check that Client implements Gateway.
var _ Gateway = (*Client)(nil)
