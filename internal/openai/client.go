package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// Per-call deadlines come from the caller's context; this is a
		// backstop for calls made without one.
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, for proxies and tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one scoring request and returns the completion text.
// Temperature is pinned to 0 and the response format to json_object, per the
// scoring contract. Failures come back as *Error classified by kind, except
// caller-initiated cancellation, which surfaces as the context error so the
// coordinator can tell an abort from a genuine failure.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		MaxTokens:      maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", context.Canceled
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, Message: "request deadline exceeded"}
		}
		return "", &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		kind := KindHTTP
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			kind = KindAuth
		case http.StatusTooManyRequests:
			kind = KindRateLimited
		}
		return "", &Error{Kind: kind, Status: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &Error{Kind: KindParse, Message: fmt.Sprintf("unmarshal response envelope: %v", err)}
	}
	if len(apiResp.Choices) == 0 {
		return "", &Error{Kind: KindParse, Message: "response carried no choices"}
	}

	choice := apiResp.Choices[0]
	if choice.FinishReason == "length" {
		return "", &Error{Kind: KindTruncated, Message: "completion stopped at the max_tokens limit"}
	}
	if choice.Message.Content == "" {
		return "", &Error{Kind: KindParse, Message: "response carried no content"}
	}

	return choice.Message.Content, nil
}
