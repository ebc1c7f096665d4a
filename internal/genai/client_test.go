package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/genstudio/genstudio/internal/config"
	"github.com/genstudio/genstudio/pkg/models"
)

func newClientFor(baseURL string) *Client {
	return NewClient(
		config.ServiceConfig{
			APIKey:     "test-key",
			BaseURL:    baseURL,
			TextModel:  "gemini-2.5-flash",
			ImageModel: "imagen-4.0-generate-001",
			VideoModel: "veo-2.0-generate-001",
			ImageCount: 1,
		},
		config.VideoConfig{
			PollInterval: time.Millisecond,
			MaxPolls:     10,
		},
	)
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newClientFor(srv.URL)
}

func TestGenerateText(t *testing.T) {
	var gotReq generateContentRequest
	var gotKey string

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "the answer"}},
				}},
			},
		})
	}))

	params := models.ModelParams{Temperature: 0.3, TopK: 20, TopP: 0.8}
	text, err := c.GenerateText(context.Background(), "a question", params)
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if text != "the answer" {
		t.Errorf("GenerateText() = %q, want %q", text, "the answer")
	}
	if gotKey != "test-key" {
		t.Errorf("credential header = %q, want test-key", gotKey)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.Temperature != 0.3 {
		t.Errorf("request generationConfig = %+v, want sampling params forwarded", gotReq.GenerationConfig)
	}
}

func TestGenerateTextServiceError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))

	_, err := c.GenerateText(context.Background(), "q", models.DefaultParams())
	if err == nil {
		t.Fatal("GenerateText() error = nil, want service failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q does not carry transport status", err)
	}
}

func TestGenerateImagesReturnsDataURIs(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/imagen-4.0-generate-001:predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]string{
				{"bytesBase64Encoded": "aGVsbG8=", "mimeType": "image/jpeg"},
			},
		})
	}))

	uris, err := c.GenerateImages(context.Background(), "an astronaut cat")
	if err != nil {
		t.Fatalf("GenerateImages() error = %v", err)
	}
	if len(uris) != 1 {
		t.Fatalf("GenerateImages() returned %d images, want 1", len(uris))
	}
	if uris[0] != "data:image/jpeg;base64,aGVsbG8=" {
		t.Errorf("GenerateImages()[0] = %q, want renderable data URI", uris[0])
	}
}

func TestGenerateImagesEmptyResponse(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"predictions": []interface{}{}})
	}))

	if _, err := c.GenerateImages(context.Background(), "p"); err == nil {
		t.Fatal("GenerateImages() error = nil, want failure for empty response")
	}
}

// videoService fakes the long-running operation flow: done=false for
// pollsUntilDone polls, then done=true with the configured result.
type videoService struct {
	mu             sync.Mutex
	polls          int
	pollsUntilDone int
	resultURI      string
	downloadCode   int
}

func (v *videoService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/models/veo-2.0-generate-001:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "operations/op-1",
			"done": false,
		})
	})

	mux.HandleFunc("/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		v.mu.Lock()
		v.polls++
		done := v.polls >= v.pollsUntilDone
		v.mu.Unlock()

		resp := map[string]interface{}{"name": "operations/op-1", "done": done}
		if done && v.resultURI != "" {
			resp["response"] = map[string]interface{}{
				"generateVideoResponse": map[string]interface{}{
					"generatedSamples": []map[string]interface{}{
						{"video": map[string]string{"uri": v.resultURI}},
					},
				},
			}
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/files/video-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("download request missing credential")
		}
		if v.downloadCode != 0 {
			w.WriteHeader(v.downloadCode)
			return
		}
		w.Write([]byte("binary video"))
	})

	return mux
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	svc := &videoService{pollsUntilDone: 3}
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	svc.resultURI = srv.URL + "/files/video-1"
	c := newClientFor(srv.URL)

	var progress []string
	data, err := c.GenerateVideo(context.Background(), "a cat driving", func(message string) {
		progress = append(progress, message)
	})
	if err != nil {
		t.Fatalf("GenerateVideo() error = %v", err)
	}
	if string(data) != "binary video" {
		t.Errorf("GenerateVideo() = %q, want fetched binary", data)
	}

	// Initial notification plus at least one message per poll.
	if len(progress) < svc.pollsUntilDone+1 {
		t.Errorf("onProgress invoked %d times, want at least %d", len(progress), svc.pollsUntilDone+1)
	}
	if progress[0] != "Starting video generation..." {
		t.Errorf("first progress message = %q", progress[0])
	}
}

func TestGenerateVideoRotatesPollMessages(t *testing.T) {
	svc := &videoService{pollsUntilDone: 4}
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	svc.resultURI = srv.URL + "/files/video-1"
	c := newClientFor(srv.URL)

	var progress []string
	if _, err := c.GenerateVideo(context.Background(), "p", func(m string) { progress = append(progress, m) }); err != nil {
		t.Fatalf("GenerateVideo() error = %v", err)
	}

	// Poll-count-keyed messages are deterministic: the same poll index
	// always yields the same text.
	var polls []string
	for _, m := range progress {
		if strings.HasPrefix(m, "Video generation in progress... ") && !strings.Contains(m, "a few minutes") {
			polls = append(polls, m)
		}
	}
	if len(polls) < 2 {
		t.Fatalf("got %d poll messages, want at least 2", len(polls))
	}
	for i, m := range polls {
		want := "Video generation in progress... " + pollMessages[(i+1)%len(pollMessages)]
		if m != want {
			t.Errorf("poll message %d = %q, want %q", i, m, want)
		}
	}
}

func TestGenerateVideoNoResultURI(t *testing.T) {
	svc := &videoService{pollsUntilDone: 1, resultURI: ""}
	// Mark done on first poll but never attach a URI.
	c := testClient(t, svc.handler(t))

	_, err := c.GenerateVideo(context.Background(), "p", func(string) {})
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("GenerateVideo() error = %v, want ErrNoResult", err)
	}
}

func TestGenerateVideoDownloadFailure(t *testing.T) {
	svc := &videoService{pollsUntilDone: 1, downloadCode: http.StatusInternalServerError}
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	svc.resultURI = srv.URL + "/files/video-1"
	c := newClientFor(srv.URL)

	_, err := c.GenerateVideo(context.Background(), "p", func(string) {})
	if err == nil {
		t.Fatal("GenerateVideo() error = nil, want download failure")
	}
	if !strings.Contains(err.Error(), "download failed") || !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not carry the transport status", err)
	}
}

func TestGenerateVideoPollTimeout(t *testing.T) {
	// A service that never completes must not loop forever.
	svc := &videoService{pollsUntilDone: 1 << 30}
	c := testClient(t, svc.handler(t))
	c.video.MaxPolls = 3

	_, err := c.GenerateVideo(context.Background(), "p", func(string) {})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("GenerateVideo() error = %v, want ErrPollTimeout", err)
	}
}

func sseChunk(text string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	})
	return fmt.Sprintf("data: %s\n\n", payload)
}

func TestStreamMessageDeliversFragmentsInOrder(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frag := range []string{"Once", " upon", " a time"} {
			fmt.Fprint(w, sseChunk(frag))
		}
	}))

	var fragments []string
	session := c.NewSession()
	full, err := c.StreamMessage(context.Background(), session, "tell a story", func(fragment string) error {
		fragments = append(fragments, fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	if full != "Once upon a time" {
		t.Errorf("StreamMessage() = %q, want ordered concatenation", full)
	}
	if strings.Join(fragments, "") != full {
		t.Errorf("fragments %v do not concatenate to %q", fragments, full)
	}
}

func TestStreamMessageCarriesConversationHistory(t *testing.T) {
	var lastReq generateContentRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastReq)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("reply"))
	}))

	session := c.NewSession()
	if _, err := c.StreamMessage(context.Background(), session, "first", nil); err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	if _, err := c.StreamMessage(context.Background(), session, "second", nil); err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	// Second send replays the first exchange plus the new user turn.
	if len(lastReq.Contents) != 3 {
		t.Fatalf("second request carried %d contents, want 3", len(lastReq.Contents))
	}
	if lastReq.Contents[0].Parts[0].Text != "first" || lastReq.Contents[1].Parts[0].Text != "reply" {
		t.Errorf("conversation history not replayed: %+v", lastReq.Contents)
	}
}

func TestStreamMessageErrorDoesNotExtendSession(t *testing.T) {
	fail := true
	var lastReq generateContentRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastReq)
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("ok"))
	}))

	session := c.NewSession()
	if _, err := c.StreamMessage(context.Background(), session, "doomed", nil); err == nil {
		t.Fatal("StreamMessage() error = nil, want service failure")
	}

	fail = false
	if _, err := c.StreamMessage(context.Background(), session, "retry", nil); err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	if len(lastReq.Contents) != 1 {
		t.Errorf("failed exchange leaked into session history: %+v", lastReq.Contents)
	}
}
