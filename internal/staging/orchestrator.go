// Package staging wraps the external image-transform service with prompt
// construction, credit gating, progress sequencing, and error
// classification.
package staging

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/service"
)

// RefinementLabel is the style label recorded for refinement results.
const RefinementLabel = "Refinement"

// Orchestrator coordinates one generation at a time: it pre-checks credit,
// issues the transform request, classifies failures, and on success appends
// to the persistent history and deducts one credit. It never retries.
//
// A single in-flight guard rejects a second request while one is pending, so
// two calls can never race the ledger's check-and-deduct.
type Orchestrator struct {
	ledger  service.LedgerService
	history service.HistoryService
	tr      Transformer
	clk     clock.Clock
	log     *zap.Logger

	progress     *Progress
	captionEvery time.Duration
	onCaption    func(string)
	onBadCred    func()

	inFlight atomic.Bool
}

// NewOrchestrator constructs an orchestrator with required dependencies.
func NewOrchestrator(ledger service.LedgerService, history service.HistoryService, tr Transformer, clk clock.Clock, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		ledger:       ledger,
		history:      history,
		tr:           tr,
		clk:          clk,
		log:          log,
		progress:     &Progress{},
		captionEvery: CaptionInterval * time.Millisecond,
	}
}

// Progress exposes the caption sequencer for the UI.
func (o *Orchestrator) Progress() *Progress { return o.progress }

// OnCaption registers a sink invoked from the caption timer while a request
// is in flight.
func (o *Orchestrator) OnCaption(f func(string)) { o.onCaption = f }

// OnBadCredential registers the hook run when the service rejects the API
// credential, so the UI can open the key-selection flow instead of dead-ending.
func (o *Orchestrator) OnBadCredential(f func()) { o.onBadCred = f }

// GenerateParams describe one initial staging request.
type GenerateParams struct {
	AccountID   uuid.UUID
	Source      []byte // uploaded room photo
	StyleID     string
	RoomType    string
	AspectRatio string // concrete ratio or "Auto"
	Width       int    // source dimensions, used for "Auto"
	Height      int
	Resolution  string
	Model       string
}

// Generate transforms the uploaded photo with the selected style preset.
func (o *Orchestrator) Generate(ctx context.Context, p GenerateParams) (*model.GenerationResult, error) {
	style, ok := StyleByID(p.StyleID)
	if !ok {
		return nil, fmt.Errorf("validation: unknown style %q", p.StyleID)
	}
	return o.run(ctx, runArgs{
		accountID:   p.AccountID,
		send:        p.Source,
		source:      p.Source,
		task:        style.PromptPrefix,
		label:       style.Label,
		roomType:    p.RoomType,
		aspectRatio: ResolveAspectRatio(p.AspectRatio, p.Width, p.Height),
		resolution:  p.Resolution,
		model:       p.Model,
	})
}

// RefineParams describe a refinement of a prior result.
type RefineParams struct {
	AccountID   uuid.UUID
	Source      []byte // original upload, recorded in history
	Prior       []byte // result being refined; sent to the service
	Instruction string // free-text edit request
	RoomType    string
	AspectRatio string
	Width       int
	Height      int
	Resolution  string
	Model       string
}

// Refine modifies an existing result while holding structure fixed. Deduction
// and history rules are the same as for Generate.
func (o *Orchestrator) Refine(ctx context.Context, p RefineParams) (*model.GenerationResult, error) {
	if p.Instruction == "" {
		return nil, errors.New("validation: empty refinement instruction")
	}
	if len(p.Prior) == 0 {
		return nil, errs.ErrNoSourceImage
	}
	return o.run(ctx, runArgs{
		accountID:   p.AccountID,
		send:        p.Prior,
		source:      p.Source,
		task:        RefinementTask(p.Instruction),
		label:       RefinementLabel,
		roomType:    p.RoomType,
		aspectRatio: ResolveAspectRatio(p.AspectRatio, p.Width, p.Height),
		resolution:  p.Resolution,
		model:       p.Model,
	})
}

type runArgs struct {
	accountID   uuid.UUID
	send        []byte
	source      []byte
	task        string
	label       string
	roomType    string
	aspectRatio string
	resolution  string
	model       string
}

func (o *Orchestrator) run(ctx context.Context, a runArgs) (*model.GenerationResult, error) {
	if len(a.send) == 0 {
		return nil, errs.ErrNoSourceImage
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, errs.ErrGenerationInFlight
	}
	defer o.inFlight.Store(false)

	// Pre-flight credit gate: short-circuit before any network attempt.
	// The deduction itself happens only after a successful response.
	bal, err := o.ledger.Balance(ctx, a.accountID)
	if err != nil {
		return nil, err
	}
	if bal == 0 {
		return nil, errs.ErrCreditExhausted
	}

	o.progress.Start()
	defer o.progress.Stop()
	stopCaptions := o.runCaptionTimer()
	defer stopCaptions()

	start := time.Now()
	out, err := o.tr.Transform(ctx, Request{
		Image:       a.send,
		Instruction: BuildInstruction(a.task, a.roomType),
		AspectRatio: a.aspectRatio,
		RoomType:    a.roomType,
		Model:       a.model,
		Resolution:  a.resolution,
	})
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredential) && o.onBadCred != nil {
			o.onBadCred()
		}
		o.log.Warn("transform failed",
			zap.String("label", a.label),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	rec, err := o.history.Record(ctx, a.accountID, a.source, out, a.label)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	if _, err := o.ledger.CheckAndDeduct(ctx, a.accountID); err != nil {
		// The image is already delivered; a ledger write failure here must
		// not destroy the result.
		o.log.Error("credit deduction failed after successful generation",
			zap.String("account", a.accountID.String()),
			zap.Error(err),
		)
	}

	o.log.Info("staging complete",
		zap.String("label", a.label),
		zap.String("room", a.roomType),
		zap.String("aspect", a.aspectRatio),
		zap.Duration("dur", time.Since(start)),
	)
	return rec, nil
}

// runCaptionTimer advances the progress captions on a fixed interval until
// the returned stop function is called.
func (o *Orchestrator) runCaptionTimer() func() {
	done := make(chan struct{})
	t := o.clk.NewTicker(o.captionEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.Chan():
				o.progress.Advance()
				if o.onCaption != nil {
					if c, ok := o.progress.Caption(); ok {
						o.onCaption(c)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}
