// Package gmail implements the email transport over the Gmail REST API.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/transport"
)

const baseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// TokenSource supplies a bearer token per request so callers can plug in a
// refreshing source. Credential bootstrapping itself is out of scope.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource around a fixed token.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// Config holds Gmail transport settings.
type Config struct {
	Tokens TokenSource
	// Signature is appended to every outgoing reply.
	Signature string
	// Query selects candidate messages; defaults to unread mail.
	Query string
}

// Transport is the Gmail-backed email transport.
type Transport struct {
	cfg    Config
	client *http.Client
}

// New creates a Gmail transport.
func New(cfg Config) *Transport {
	if cfg.Query == "" {
		cfg.Query = "is:unread"
	}
	return &Transport{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Channel identifies this transport as the email channel.
func (t *Transport) Channel() model.Channel {
	return model.ChannelEmail
}

type listResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

type messagePayload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []messagePayload `json:"parts"`
}

type messageResponse struct {
	ID           string         `json:"id"`
	ThreadID     string         `json:"threadId"`
	InternalDate string         `json:"internalDate"`
	Payload      messagePayload `json:"payload"`
}

// FetchCandidates lists unread messages and resolves each to an inbound
// item.
func (t *Transport) FetchCandidates(ctx context.Context, limit int) ([]transport.InboundItem, error) {
	q := url.Values{}
	q.Set("q", t.cfg.Query)
	q.Set("maxResults", strconv.Itoa(limit))

	var list listResponse
	if err := t.call(ctx, http.MethodGet, "/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	items := make([]transport.InboundItem, 0, len(list.Messages))
	for _, ref := range list.Messages {
		var msg messageResponse
		if err := t.call(ctx, http.MethodGet, "/messages/"+ref.ID+"?format=full", nil, &msg); err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
		}
		items = append(items, toInboundItem(&msg))
	}
	return items, nil
}

// Send replies within the thread. The raw RFC 2822 message is base64url
// encoded per the Gmail API.
func (t *Transport) Send(ctx context.Context, out transport.Outbound) error {
	var mime strings.Builder
	fmt.Fprintf(&mime, "To: %s\r\n", out.ReplyTo)
	if out.Subject != "" {
		fmt.Fprintf(&mime, "Subject: %s\r\n", out.Subject)
	}
	mime.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	mime.WriteString(out.Body)
	if t.cfg.Signature != "" {
		mime.WriteString("\n\n--\n" + t.cfg.Signature)
	}

	req := map[string]string{
		"raw":      base64.URLEncoding.EncodeToString([]byte(mime.String())),
		"threadId": out.ThreadID,
	}
	if err := t.call(ctx, http.MethodPost, "/messages/send", req, nil); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// MarkConsumed removes the UNREAD label.
func (t *Transport) MarkConsumed(ctx context.Context, messageID string) error {
	req := map[string][]string{"removeLabelIds": {"UNREAD"}}
	if err := t.call(ctx, http.MethodPost, "/messages/"+messageID+"/modify", req, nil); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func (t *Transport) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}

	token, err := t.cfg.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gmail API %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var fromPattern = regexp.MustCompile(`(.+?)\s*<(.+?)>`)

func toInboundItem(msg *messageResponse) transport.InboundItem {
	item := transport.InboundItem{
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		Channel:   model.ChannelEmail,
		Body:      extractBody(&msg.Payload),
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			// "Name <addr@domain>" or a bare address.
			if m := fromPattern.FindStringSubmatch(h.Value); m != nil {
				item.SenderName = strings.TrimSpace(m[1])
				item.Sender = strings.TrimSpace(m[2])
			} else {
				item.Sender = h.Value
				item.SenderName = h.Value
			}
		case "subject":
			item.Subject = h.Value
		}
	}

	if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
		item.ReceivedAt = time.UnixMilli(ms).UTC()
	} else {
		item.ReceivedAt = time.Now().UTC()
	}
	return item
}

// extractBody walks the MIME tree for the first text/plain part.
func extractBody(payload *messagePayload) string {
	if len(payload.Parts) == 0 {
		return decodeBody(payload.Body.Data)
	}
	for i := range payload.Parts {
		part := &payload.Parts[i]
		if part.MimeType == "text/plain" && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
		if strings.HasPrefix(part.MimeType, "multipart/") {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
