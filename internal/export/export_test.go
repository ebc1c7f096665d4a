package export

import (
	"strings"
	"testing"

	"github.com/genstudio/genstudio/pkg/models"
)

func testRequest(mode models.Mode) Request {
	return Request{
		Mode:       mode,
		Prompt:     "a \"quoted\" prompt",
		Params:     models.ModelParams{Temperature: 0.7, TopK: 40, TopP: 0.95},
		TextModel:  "gemini-2.5-flash",
		ImageModel: "imagen-4.0-generate-001",
		VideoModel: "veo-2.0-generate-001",
	}
}

func TestSnippetNeverEmbedsRealCredential(t *testing.T) {
	for _, mode := range []models.Mode{models.ModeFreeform, models.ModeChat, models.ModeImage, models.ModeVideo} {
		for _, lang := range []Language{LangCurl, LangJavaScript} {
			snippet, err := Snippet(lang, testRequest(mode))
			if err != nil {
				t.Fatalf("Snippet(%s, %s) error = %v", lang, mode, err)
			}
			if !strings.Contains(snippet, "YOUR_API_KEY") {
				t.Errorf("Snippet(%s, %s) missing credential placeholder", lang, mode)
			}
		}
	}
}

func TestTextSnippetCarriesParams(t *testing.T) {
	snippet, err := Snippet(LangJavaScript, testRequest(models.ModeFreeform))
	if err != nil {
		t.Fatalf("Snippet() error = %v", err)
	}
	for _, want := range []string{"temperature: 0.7", "topK: 40", "topP: 0.95", "gemini-2.5-flash"} {
		if !strings.Contains(snippet, want) {
			t.Errorf("snippet missing %q:\n%s", want, snippet)
		}
	}
}

func TestPromptIsEscaped(t *testing.T) {
	snippet, err := Snippet(LangJavaScript, testRequest(models.ModeImage))
	if err != nil {
		t.Fatalf("Snippet() error = %v", err)
	}
	if !strings.Contains(snippet, `"a \"quoted\" prompt"`) {
		t.Errorf("prompt not JSON-escaped:\n%s", snippet)
	}
}

func TestVideoSnippetMentionsPolling(t *testing.T) {
	curl, err := Snippet(LangCurl, testRequest(models.ModeVideo))
	if err != nil {
		t.Fatalf("Snippet() error = %v", err)
	}
	if !strings.Contains(curl, "Poll") {
		t.Errorf("curl video snippet does not explain polling:\n%s", curl)
	}

	js, err := Snippet(LangJavaScript, testRequest(models.ModeVideo))
	if err != nil {
		t.Fatalf("Snippet() error = %v", err)
	}
	if !strings.Contains(js, "while (!operation.done)") {
		t.Errorf("js video snippet missing poll loop:\n%s", js)
	}
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := Snippet("python", testRequest(models.ModeFreeform)); err == nil {
		t.Fatal("Snippet(python) error = nil, want unknown language")
	}
}
