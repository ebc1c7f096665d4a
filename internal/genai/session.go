package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Session is one ongoing multi-turn conversation. The service's REST API
// is stateless, so the session carries the conversation contents and
// replays them on every send. Not safe for concurrent sends; the chat
// manager serializes access.
type Session struct {
	contents []content
}

// NewSession creates a fresh conversation handle. It sends nothing.
func (c *Client) NewSession() *Session {
	return &Session{}
}

// StreamMessage sends one user message on the session and delivers text
// fragments to onChunk as they arrive, in order, with no buffering
// beyond concatenation. It returns the full concatenated text once the
// underlying stream ends. The session's conversation history is
// extended only when the whole exchange succeeds.
func (c *Client) StreamMessage(ctx context.Context, s *Session, message string, onChunk StreamFunc) (string, error) {
	turn := content{Role: "user", Parts: []contentPart{{Text: message}}}
	req := generateContentRequest{
		Contents: append(append([]content{}, s.contents...), turn),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("genai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.cfg.BaseURL, c.cfg.TextModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	// The stream client carries no timeout: a chat response may take
	// arbitrarily long, and the context handles cancellation.
	httpResp, err := c.stream.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("genai: stream request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("genai: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	full, err := readEventStream(httpResp.Body, onChunk)
	if err != nil {
		return "", err
	}

	s.contents = append(s.contents, turn, content{
		Role:  "model",
		Parts: []contentPart{{Text: full}},
	})
	return full, nil
}

// readEventStream consumes server-sent events, forwarding each chunk's
// text to onChunk and accumulating the concatenation.
func readEventStream(r io.Reader, onChunk StreamFunc) (string, error) {
	var full strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk generateContentResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("genai: decode stream chunk: %w", err)
		}
		text := chunk.text()
		if text == "" {
			continue
		}
		full.WriteString(text)
		if onChunk != nil {
			if err := onChunk(text); err != nil {
				return "", err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("genai: read stream: %w", err)
	}
	return full.String(), nil
}
