package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.z-api.io"

// ZAPIClient talks to the Z-API gateway. The account token is embedded in
// every instance path and also sent as the Client-Token header.
type ZAPIClient struct {
	token string
	rc    *resty.Client
}

func NewZAPIClient(baseURL, token string, timeout time.Duration) *ZAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Client-Token", token)

	return &ZAPIClient{token: token, rc: rc}
}

// Response is whatever the provider answered. Body holds the parsed JSON
// object, or {"raw": text} when the body was not a JSON object.
type Response struct {
	StatusCode int
	Body       map[string]any
	MessageID  string
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendText posts a text message. The error is non-nil only when no
// response was received; non-2xx answers are returned as a Response.
func (c *ZAPIClient) SendText(ctx context.Context, instanceID, phone, message string) (Response, error) {
	resp, err := c.request(ctx, instanceID).
		SetBody(sendTextRequest{Phone: phone, Message: message}).
		Post("/instances/{instanceId}/token/{token}/send-text")
	if err != nil {
		return Response{}, fmt.Errorf("zapi send-text: %w", err)
	}
	return toResponse(resp), nil
}

func (c *ZAPIClient) Logout(ctx context.Context, instanceID string) (Response, error) {
	resp, err := c.request(ctx, instanceID).
		Post("/instances/{instanceId}/token/{token}/logout")
	if err != nil {
		return Response{}, fmt.Errorf("zapi logout: %w", err)
	}
	return toResponse(resp), nil
}

func (c *ZAPIClient) Status(ctx context.Context, instanceID string) (Response, error) {
	resp, err := c.request(ctx, instanceID).
		Get("/instances/{instanceId}/token/{token}/status")
	if err != nil {
		return Response{}, fmt.Errorf("zapi status: %w", err)
	}
	return toResponse(resp), nil
}

func (c *ZAPIClient) request(ctx context.Context, instanceID string) *resty.Request {
	return c.rc.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"instanceId": instanceID,
			"token":      c.token,
		})
}

func toResponse(resp *resty.Response) Response {
	body := parseBody(resp.Body())
	return Response{
		StatusCode: resp.StatusCode(),
		Body:       body,
		MessageID:  messageID(body),
	}
}

func parseBody(b []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		return map[string]any{"raw": string(b)}
	}
	return obj
}

func messageID(body map[string]any) string {
	if s := idString(body["messageId"]); s != "" {
		return s
	}
	if s := idString(body["id"]); s != "" {
		return s
	}
	data, _ := body["data"].(map[string]any)
	if s := idString(data["id"]); s != "" {
		return s
	}
	return idString(data["messageId"])
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
