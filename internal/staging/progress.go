package staging

import "sync"

// Captions are the progress messages cycled while a request is in flight.
// They are cosmetic; correctness never depends on them.
var Captions = []string{
	"Analyzing room architecture...",
	"Identifying light sources...",
	"Generating design concept...",
	"Applying material textures...",
	"Rendering final scene...",
	"Upscaling to high-definition...",
}

// CaptionInterval is how often the caption advances while a request runs.
const CaptionInterval = 1500 // milliseconds

// Progress sequences the captions. Advance only moves the step while a
// request is active, and every Start resets to the first caption.
type Progress struct {
	mu     sync.Mutex
	active bool
	step   int
}

// Start marks a request in flight and resets to the first caption.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.step = 0
}

// Stop marks the request finished; further Advance calls are no-ops.
func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// Advance moves to the next caption, wrapping around, while active.
func (p *Progress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.step = (p.step + 1) % len(Captions)
}

// Caption returns the current caption and whether a request is in flight.
func (p *Progress) Caption() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Captions[p.step], p.active
}
