package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiURL = "https://graph.facebook.com/v21.0"

type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different Graph API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(phoneNumberID, accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:       apiURL,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendText sends an unthreaded plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, textMessage(to, body))
}

// ReplyText sends a plain text message threaded to inReplyTo.
func (c *Client) ReplyText(ctx context.Context, to, body, inReplyTo string) error {
	msg := textMessage(to, body)
	if inReplyTo != "" {
		msg.Context = &MessageContext{MessageID: inReplyTo}
	}
	return c.send(ctx, msg)
}

func textMessage(to, body string) SendMessageRequest {
	return SendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &SendText{Body: body},
	}
}

func (c *Client) send(ctx context.Context, msg SendMessageRequest) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp API status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
