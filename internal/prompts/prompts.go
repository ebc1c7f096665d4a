// Package prompts holds the static example prompt catalog the UI
// offers per mode.
package prompts

import "github.com/genstudio/genstudio/pkg/models"

// Example is one suggested prompt.
type Example struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

var catalog = map[models.Mode][]Example{
	models.ModeFreeform: {
		{Title: "Explain a concept", Prompt: "Explain the concept of quantum entanglement in simple terms."},
		{Title: "Write a poem", Prompt: "Write a short poem about the city of Tokyo at night."},
		{Title: "Summarize text", Prompt: "Summarize the following text for a 5th grader:\n\n[Paste long text here]"},
	},
	models.ModeChat: {
		{Title: "Creative writing partner", Prompt: "Let's write a story together. I'll start: The old lighthouse keeper found a mysterious, glowing shell on the beach..."},
		{Title: "Plan a trip", Prompt: "Help me plan a 3-day trip to Paris. I'm interested in art, history, and food."},
	},
	models.ModeImage: {
		{Title: "A futuristic city", Prompt: "A photorealistic image of a futuristic city with flying cars and holographic advertisements, at sunset."},
		{Title: "An astronaut cat", Prompt: "A majestic cat wearing a detailed astronaut suit, floating in space with Earth in the background, digital art."},
		{Title: "Surreal landscape", Prompt: "A surreal landscape where the rivers are made of liquid rainbows and the trees have clouds for leaves."},
	},
	models.ModeVideo: {
		{Title: "A cat driving", Prompt: "A neon hologram of a cat driving at top speed"},
		{Title: "Surfing astronaut", Prompt: "An astronaut surfing on a wave of cosmic dust, with nebulae in the background."},
		{Title: "Timelapse flower", Prompt: "A timelapse video of a rare, bioluminescent flower blooming in a dark forest."},
	},
}

// ForMode returns the examples for one mode.
func ForMode(mode models.Mode) []Example {
	return catalog[mode]
}

// All returns the full per-mode catalog.
func All() map[models.Mode][]Example {
	return catalog
}
