// Package genai implements the gateway to the hosted generative-AI
// service. It translates (mode, prompt, params) tuples into exactly one
// service call each and normalizes result shapes; all knowledge of the
// service's request/response schema lives here.
//
// No operation retries internally. Every failure surfaces once to the
// caller, which owns retry policy (none is implemented).
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/genstudio/genstudio/internal/config"
	"github.com/genstudio/genstudio/pkg/models"
	"github.com/rs/zerolog/log"
)

// Sentinel errors for terminal gateway conditions.
var (
	// ErrNoResult is returned when a completed video operation carries
	// no download URI.
	ErrNoResult = errors.New("video generation produced no result")
	// ErrPollTimeout is returned when the video poll loop exhausts its
	// attempt budget before the operation completes.
	ErrPollTimeout = errors.New("video generation timed out")
)

// ProgressFunc receives human-readable status updates during
// long-running video generation.
type ProgressFunc func(message string)

// StreamFunc receives one text fragment per streamed chunk, in arrival
// order. Returning an error aborts the stream.
type StreamFunc func(fragment string) error

// pollMessages rotate through the video progress display, keyed by poll
// count so repeated polls show varied but deterministic text.
var pollMessages = []string{
	"Just a moment, the AI is warming up its creative circuits.",
	"Rendering pixels into a moving masterpiece...",
	"Composing your video, frame by frame.",
	"Hang tight, awesome things are on the way.",
	"The digital director is calling 'Action!'.",
}

// Client speaks the service's REST API over HTTP.
type Client struct {
	cfg    config.ServiceConfig
	video  config.VideoConfig
	client *http.Client
	stream *http.Client
}

// NewClient creates a gateway client from service configuration.
func NewClient(svc config.ServiceConfig, video config.VideoConfig) *Client {
	return &Client{
		cfg:   svc,
		video: video,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		// Streaming responses have no fixed deadline; cancellation
		// comes from the request context.
		stream: &http.Client{},
	}
}

// ── Text generation ──────────────────────────────────────────

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"topK"`
	TopP        float64 `json:"topP"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text returns the concatenated text parts of the first candidate.
func (r *generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	out := ""
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// GenerateText issues one single-shot generation request. No retry; any
// transport or service error propagates unchanged.
func (c *Client) GenerateText(ctx context.Context, prompt string, params models.ModelParams) (string, error) {
	req := generateContentRequest{
		Contents: []content{{Parts: []contentPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature: params.Temperature,
			TopK:        params.TopK,
			TopP:        params.TopP,
		},
	}

	var resp generateContentResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.TextModel)
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return "", err
	}
	return resp.text(), nil
}

// ── Image generation ─────────────────────────────────────────

type generateImagesRequest struct {
	Instances  []imageInstance `json:"instances"`
	Parameters imageParameters `json:"parameters"`
}

type imageInstance struct {
	Prompt string `json:"prompt"`
}

type imageParameters struct {
	SampleCount    int    `json:"sampleCount"`
	OutputMimeType string `json:"outputMimeType"`
}

type generateImagesResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImages generates images for the prompt and returns each as a
// directly renderable data URI.
func (c *Client) GenerateImages(ctx context.Context, prompt string) ([]string, error) {
	count := c.cfg.ImageCount
	if count < 1 {
		count = 1
	}
	req := generateImagesRequest{
		Instances: []imageInstance{{Prompt: prompt}},
		Parameters: imageParameters{
			SampleCount:    count,
			OutputMimeType: "image/jpeg",
		},
	}

	var resp generateImagesResponse
	url := fmt.Sprintf("%s/models/%s:predict", c.cfg.BaseURL, c.cfg.ImageModel)
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("genai: image generation returned no images")
	}

	uris := make([]string, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		mime := p.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		uris = append(uris, "data:"+mime+";base64,"+p.BytesBase64Encoded)
	}
	return uris, nil
}

// ── Video generation ─────────────────────────────────────────

type generateVideosRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	SampleCount int `json:"sampleCount"`
}

// videoOperation is the long-running operation handle returned by the
// start call and by each poll.
type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (op *videoOperation) resultURI() string {
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return ""
	}
	return samples[0].Video.URI
}

// GenerateVideo starts a video generation operation and polls it to
// completion at a fixed interval, reporting progress through onProgress.
// On completion it downloads the result (the fetch requires the service
// credential appended to the URI) and returns the raw bytes.
//
// The poll loop is bounded by the configured MaxPolls; exceeding it
// returns ErrPollTimeout. A completed operation without a result URI
// returns ErrNoResult. Neither condition is retried.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, onProgress ProgressFunc) ([]byte, error) {
	onProgress("Starting video generation...")

	req := generateVideosRequest{
		Instances:  []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{SampleCount: 1},
	}

	var op videoOperation
	url := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.VideoModel)
	if err := c.postJSON(ctx, url, req, &op); err != nil {
		return nil, err
	}

	onProgress("Video generation in progress... this may take a few minutes.")

	pollCount := 0
	for !op.Done {
		pollCount++
		if pollCount > c.video.MaxPolls {
			return nil, fmt.Errorf("%w after %d polls", ErrPollTimeout, c.video.MaxPolls)
		}
		onProgress("Video generation in progress... " + pollMessages[pollCount%len(pollMessages)])

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.video.PollInterval):
		}

		if err := c.pollOperation(ctx, op.Name, &op); err != nil {
			return nil, err
		}
	}

	onProgress("Finalizing video...")

	uri := op.resultURI()
	if uri == "" {
		return nil, ErrNoResult
	}
	return c.download(ctx, uri)
}

// pollOperation re-queries a long-running operation's status.
func (c *Client) pollOperation(ctx context.Context, name string, op *videoOperation) error {
	url := c.cfg.BaseURL + "/" + name
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("genai: create poll request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("genai: poll operation: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("genai: poll operation: status %d: %s", httpResp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(httpResp.Body).Decode(op); err != nil {
		return fmt.Errorf("genai: decode operation: %w", err)
	}
	return nil
}

// download fetches the result binary. The service requires the
// credential appended to the download URI.
func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+c.cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: create download request: %w", err)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: download video: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genai: download failed: status %d", httpResp.StatusCode)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("genai: read video body: %w", err)
	}
	log.Debug().Int("bytes", len(data)).Msg("video downloaded")
	return data, nil
}

// ── Shared request plumbing ──────────────────────────────────

// postJSON sends a JSON request with the service credential and decodes
// the JSON response into out. Non-2xx responses become errors carrying
// the status and body.
func (c *Client) postJSON(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("genai: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("genai: status %d: %s", httpResp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}
