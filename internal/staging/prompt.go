package staging

import (
	"fmt"
	"math"
)

// Style is one staging preset offered to the user.
type Style struct {
	ID           string
	Label        string
	Description  string
	PromptPrefix string
}

// Styles is the staging preset catalog.
var Styles = []Style{
	{
		ID:           "modern",
		Label:        "Modern",
		Description:  "Clean lines, neutral palette",
		PromptPrefix: "Stage with sleek modern furniture, minimal decor, and a neutral color scheme. High-end aesthetic.",
	},
	{
		ID:           "scandi",
		Label:        "Scandinavian",
		Description:  "Light wood, cozy, functional",
		PromptPrefix: `Stage with Scandinavian style: light oak woods, "hygge" cozy textures, and functional minimalist furniture.`,
	},
	{
		ID:           "industrial",
		Label:        "Industrial",
		Description:  "Raw metal, brick, leather",
		PromptPrefix: "Stage with industrial loft style: dark metal accents, leather seating, and reclaimed wood elements.",
	},
	{
		ID:           "luxury",
		Label:        "Luxury Gold",
		Description:  "Marble, gold, velvet",
		PromptPrefix: "Stage with premium luxury elements: gold accents, marble surfaces, and velvet fabrics for an upscale look.",
	},
	{
		ID:           "declutter",
		Label:        "Clean Up",
		Description:  "Remove mess & clutter",
		PromptPrefix: "Digitally remove all trash, clutter, and personal items. Clean the space while keeping existing fixed furniture.",
	},
}

// StyleByID looks up a preset by id.
func StyleByID(id string) (Style, bool) {
	for _, s := range Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// RoomTypes are the supported room contexts.
var RoomTypes = []string{
	"Living Room", "Bedroom", "Dining Room", "Kitchen", "Office", "Bathroom", "Exterior",
}

// QuickFeedback are one-tap refinement suggestions.
var QuickFeedback = []string{
	"Make it brighter",
	"Add more plants",
	"More minimalist",
	"Change the rug",
	"Warm lighting",
	"Blue accents",
}

// DefaultModel is the image model used unless overridden.
const DefaultModel = "gemini-3-pro-image-preview"

// BuildInstruction assembles the structured staging instruction for one
// transform request. The execution rules pin the room geometry so the service
// restages the space without altering its architecture.
func BuildInstruction(task, roomType string) string {
	return fmt.Sprintf(`Role: Expert AI Real Estate Stager & Interior Designer.
Context: This is a %s.
Task: %s

CRITICAL EXECUTION RULES:
1. SPATIAL ACCURACY: Do not move walls, windows, doors, or architectural features. The room layout must remain 100%% identical to the input.
2. FURNITURE SCALE: Ensure furniture is realistically scaled for a %s.
3. LIGHTING: Synthesize shadows and highlights that match the existing light sources (windows/lamps) in the original photo.
4. QUALITY: Deliver a photorealistic, high-end real estate marketing photo.

Output: One single transformed image.`, roomType, task, roomType)
}

// RefinementTask wraps a free-text edit request so the service modifies the
// existing result while holding structure and style fixed.
func RefinementTask(instruction string) string {
	return fmt.Sprintf("Refine this design with the following request: %s. Keep the existing style and architecture consistent.", instruction)
}

// AspectRatioAuto selects the closest supported ratio from the source
// image's dimensions.
const AspectRatioAuto = "Auto"

var aspectTargets = []struct {
	id  string
	val float64
}{
	{"1:1", 1},
	{"3:4", 0.75},
	{"4:3", 4.0 / 3},
	{"9:16", 9.0 / 16},
	{"16:9", 16.0 / 9},
}

// ResolveAspectRatio maps the user's choice to a concrete ratio. For Auto it
// picks the supported ratio closest to width/height; without known
// dimensions it falls back to 4:3.
func ResolveAspectRatio(choice string, width, height int) string {
	if choice != AspectRatioAuto && choice != "" {
		return choice
	}
	if width <= 0 || height <= 0 {
		return "4:3"
	}
	ratio := float64(width) / float64(height)
	best := aspectTargets[0]
	for _, t := range aspectTargets[1:] {
		if math.Abs(t.val-ratio) < math.Abs(best.val-ratio) {
			best = t
		}
	}
	return best.id
}
