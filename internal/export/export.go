// Package export renders equivalent API call snippets (curl and the JS
// SDK) for the current mode, prompt, and sampling parameters. Pure
// string templating; no state, no side effects.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/genstudio/genstudio/pkg/models"
)

// Language selects the snippet flavor.
type Language string

const (
	LangCurl       Language = "curl"
	LangJavaScript Language = "javascript"
)

// ParseLanguage validates a language string from the wire.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LangCurl, LangJavaScript:
		return Language(s), nil
	}
	return "", fmt.Errorf("unknown snippet language %q", s)
}

// Request carries everything a snippet depends on.
type Request struct {
	Mode       models.Mode
	Prompt     string
	Params     models.ModelParams
	TextModel  string
	ImageModel string
	VideoModel string
}

const apiKeyPlaceholder = "YOUR_API_KEY"

// Snippet renders the API call equivalent to the given request. The
// credential is always the YOUR_API_KEY placeholder, never the real
// key.
func Snippet(lang Language, req Request) (string, error) {
	if _, err := ParseLanguage(string(lang)); err != nil {
		return "", err
	}

	switch req.Mode {
	case models.ModeImage:
		return imageSnippet(lang, req), nil
	case models.ModeVideo:
		return videoSnippet(lang, req), nil
	}
	return textSnippet(lang, req), nil
}

// jsonString escapes a prompt for embedding inside generated code.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func textSnippet(lang Language, req Request) string {
	prompt := jsonString(req.Prompt)
	switch lang {
	case LangCurl:
		body, _ := json.Marshal(map[string]interface{}{
			"contents": map[string]interface{}{
				"parts": []map[string]string{{"text": req.Prompt}},
			},
		})
		return fmt.Sprintf("curl 'https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s' \\\n-H 'Content-Type: application/json' \\\n-d '%s' \\\n-X POST",
			req.TextModel, apiKeyPlaceholder, string(body))
	default:
		return fmt.Sprintf(`import { GoogleGenAI } from "@google/genai";

const ai = new GoogleGenAI({ apiKey: "%s" });

async function run() {
  const response = await ai.models.generateContent({
    model: '%s',
    contents: %s,
    config: {
      temperature: %v,
      topK: %d,
      topP: %v,
    },
  });
  console.log(response.text);
}

run();`, apiKeyPlaceholder, req.TextModel, prompt, req.Params.Temperature, req.Params.TopK, req.Params.TopP)
	}
}

func imageSnippet(lang Language, req Request) string {
	prompt := jsonString(req.Prompt)
	switch lang {
	case LangCurl:
		return fmt.Sprintf("curl 'https://generativelanguage.googleapis.com/v1/models/%s:generateImages' \\\n-H 'Content-Type: application/json' \\\n-d '{\"prompt\": %s}' \\\n-X POST --compressed -v \\\n-H 'x-goog-api-key: %s'",
			req.ImageModel, prompt, apiKeyPlaceholder)
	default:
		return fmt.Sprintf(`import { GoogleGenAI } from "@google/genai";

const ai = new GoogleGenAI({ apiKey: "%s" });

async function run() {
  const response = await ai.models.generateImages({
    model: '%s',
    prompt: %s,
  });
  console.log(response.generatedImages);
}

run();`, apiKeyPlaceholder, req.ImageModel, prompt)
	}
}

func videoSnippet(lang Language, req Request) string {
	prompt := jsonString(req.Prompt)
	switch lang {
	case LangCurl:
		return fmt.Sprintf("echo \"Video generation via curl requires polling an operation. See documentation for a complete example.\"\n\n# 1. Start the generation\ncurl 'https://generativelanguage.googleapis.com/v1/models/%s:generateVideos' \\\n-H 'Content-Type: application/json' \\\n-d '{\"prompt\": %s}' \\\n-X POST --compressed -v \\\n-H 'x-goog-api-key: %s'\n\n# 2. Poll the returned operation name",
			req.VideoModel, prompt, apiKeyPlaceholder)
	default:
		return fmt.Sprintf(`import { GoogleGenAI } from "@google/genai";

const ai = new GoogleGenAI({ apiKey: "%s" });

async function run() {
  console.log('Starting video generation...');
  let operation = await ai.models.generateVideos({
    model: '%s',
    prompt: %s,
  });

  console.log('Polling for result...');
  while (!operation.done) {
    await new Promise(resolve => setTimeout(resolve, 10000));
    operation = await ai.operations.getVideosOperation({ operation: operation });
  }

  const downloadLink = operation.response?.generatedVideos?.[0]?.video?.uri;
  console.log('Video ready:', downloadLink);
}

run();`, apiKeyPlaceholder, req.VideoModel, prompt)
	}
}
