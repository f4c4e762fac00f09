// Package openai is a minimal client for OpenAI-compatible completion
// endpoints. Request bodies are brotli-compressed; streamed responses
// are delivered chunk by chunk so the caller can parse incrementally.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"editstream/logger"

	"github.com/andybalholm/brotli"
)

// CompletionRequest matches the OpenAI Completion API format.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
	N           int      `json:"n"`
	Echo        bool     `json:"echo"`
	Stream      bool     `json:"stream"`
}

// CompletionResponse matches the OpenAI Completion API response format.
type CompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		Text         string `json:"text"`
		Logprobs     any    `json:"logprobs"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// streamChunk is a single SSE data payload from a streaming response.
type streamChunk struct {
	Choices []struct {
		Index        int    `json:"index"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamResult summarizes a completed stream.
type StreamResult struct {
	FinishReason string
	Chunks       int
	StoppedEarly bool
}

// Client is a reusable OpenAI-compatible API client.
type Client struct {
	HTTPClient *http.Client
	URL        string
	AuthToken  string
}

// NewClient creates a client for the given base URL. timeoutMs of 0
// means no timeout; streaming requests rely on context cancellation
// instead.
func NewClient(url, apiKey string, timeoutMs int) *Client {
	timeout := time.Duration(0)
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		URL:        url,
		AuthToken:  apiKey,
	}
}

// DoCompletion sends a non-streaming completion request.
func (c *Client) DoCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	defer logger.Trace("openai.DoCompletion")()
	req.Stream = false

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out CompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// DoStreamingCompletion sends a streaming completion request and calls
// onChunk with each text delta as it arrives. ctx is checked between
// chunks; a returned onChunk error aborts the stream and is returned
// unchanged. maxLines > 0 stops the stream once that many newlines have
// been received, without error.
func (c *Client) DoStreamingCompletion(ctx context.Context, req *CompletionRequest, maxLines int, onChunk func(text string) error) (*StreamResult, error) {
	defer logger.Trace("openai.DoStreamingCompletion")()
	req.Stream = true

	resp, err := c.send(ctx, req, "text/event-stream")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readStream(ctx, resp.Body, maxLines, onChunk)
}

// readStream parses SSE data lines and forwards text deltas.
func (c *Client) readStream(ctx context.Context, body io.Reader, maxLines int, onChunk func(string) error) (*StreamResult, error) {
	result := &StreamResult{}
	lineCount := 0

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			logger.Debug("openai stream: failed to parse chunk: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Text != "" {
			result.Chunks++
			if err := onChunk(choice.Text); err != nil {
				return result, err
			}
			lineCount += strings.Count(choice.Text, "\n")
			if maxLines > 0 && lineCount >= maxLines {
				result.StoppedEarly = true
				logger.Debug("openai stream: stopping early at %d lines (max: %d)", lineCount, maxLines)
				break
			}
		}
		if choice.FinishReason != "" {
			result.FinishReason = choice.FinishReason
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("openai stream: scanner error: %v", err)
	}
	return result, nil
}

// send marshals, compresses, and posts a completion request.
func (c *Client) send(ctx context.Context, req *CompletionRequest, accept string) (*http.Response, error) {
	// Marshal without HTML escaping, code goes through these bodies
	var jsonBuf bytes.Buffer
	encoder := json.NewEncoder(&jsonBuf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Compress with brotli (quality 1 for speed)
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, 1)
	if _, err := bw.Write(jsonBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to compress request: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL+"/v1/completions", &compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Content-Encoding", "br")
	if accept != "" {
		httpReq.Header.Set("Accept", accept)
	}
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
