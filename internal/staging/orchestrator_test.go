package staging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository/memory"
	"github.com/brianking74/Property-Stage/internal/service"
)

func TestMain(m *testing.M) {
	// The genai dependency pulls in opencensus, whose stats worker goroutine
	// starts in init() and can never be stopped by code under test.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeTransformer records requests and returns a canned response.
type fakeTransformer struct {
	mu      sync.Mutex
	calls   int
	last    Request
	out     []byte
	err     error
	gate    chan struct{} // when set, Transform blocks until closed
	entered chan struct{}
}

func (f *fakeTransformer) Transform(ctx context.Context, req Request) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		f.mu.Lock()
		f.entered = nil
		f.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeTransformer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTransformer) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fixture struct {
	orch     *Orchestrator
	tr       *fakeTransformer
	ledger   service.LedgerService
	history  service.HistoryService
	accounts *memory.AccountRepo
	owner    uuid.UUID
}

func newFixture(t *testing.T, credits int) *fixture {
	return newFixtureWithClock(t, credits, clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func newFixtureWithClock(t *testing.T, credits int, clk *clock.Mock) *fixture {
	t.Helper()
	accounts := memory.NewAccountRepo()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	a := &model.Account{
		ID: id, Email: "jane@example.com", Name: "Jane",
		Plan: model.PlanFree, Credits: credits,
		JoinedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := accounts.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}

	tr := &fakeTransformer{out: []byte("staged-image")}
	ledger := service.NewLedgerService(accounts)
	history := service.NewHistoryService(memory.NewHistoryRepo(50), clk)
	return &fixture{
		orch:     NewOrchestrator(ledger, history, tr, clk, zap.NewNop()),
		tr:       tr,
		ledger:   ledger,
		history:  history,
		accounts: accounts,
		owner:    id,
	}
}

func (f *fixture) generate(ctx context.Context) (*model.GenerationResult, error) {
	return f.orch.Generate(ctx, GenerateParams{
		AccountID:   f.owner,
		Source:      []byte("room-photo"),
		StyleID:     "modern",
		RoomType:    "Bedroom",
		AspectRatio: AspectRatioAuto,
		Width:       1600,
		Height:      1200,
		Resolution:  "1K",
	})
}

func TestGenerateSuccess(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	rec, err := f.generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(rec.Transformed) != "staged-image" {
		t.Errorf("transformed = %q", rec.Transformed)
	}
	if rec.Style != "Modern" {
		t.Errorf("style label = %q, want Modern", rec.Style)
	}

	bal, err := f.ledger.Balance(ctx, f.owner)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal != 2 {
		t.Errorf("balance = %d, want 2", bal)
	}

	recs, err := f.history.List(ctx, f.owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("history = %d entries, want 1", len(recs))
	}

	req := f.tr.lastRequest()
	if !strings.Contains(req.Instruction, "This is a Bedroom.") {
		t.Errorf("room context missing from instruction:\n%s", req.Instruction)
	}
	if req.AspectRatio != "4:3" {
		t.Errorf("aspect = %q, want 4:3 for 1600x1200", req.AspectRatio)
	}
}

func TestGenerateExhaustedBeforeNetwork(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.generate(context.Background())
	if !errors.Is(err, errs.ErrCreditExhausted) {
		t.Fatalf("err = %v, want ErrCreditExhausted", err)
	}
	if f.tr.callCount() != 0 {
		t.Errorf("transformer called %d times, the credit gate must fire first", f.tr.callCount())
	}
}

func TestGenerateFailureNoDeduction(t *testing.T) {
	f := newFixture(t, 3)
	f.tr.err = errs.ErrTransientFailure
	ctx := context.Background()

	_, err := f.generate(ctx)
	if !errors.Is(err, errs.ErrTransientFailure) {
		t.Fatalf("err = %v, want ErrTransientFailure", err)
	}
	bal, _ := f.ledger.Balance(ctx, f.owner)
	if bal != 3 {
		t.Errorf("balance = %d, failed requests must not deduct", bal)
	}
	recs, _ := f.history.List(ctx, f.owner)
	if len(recs) != 0 {
		t.Errorf("history = %d entries, failed requests must not record", len(recs))
	}
}

func TestGenerateUnlimitedNeverDeducts(t *testing.T) {
	f := newFixture(t, model.UnlimitedCredits)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.generate(ctx); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	bal, _ := f.ledger.Balance(ctx, f.owner)
	if bal != model.UnlimitedCredits {
		t.Errorf("balance = %d, want unchanged sentinel", bal)
	}
}

func TestGenerateUnknownStyle(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.orch.Generate(context.Background(), GenerateParams{
		AccountID: f.owner,
		Source:    []byte("img"),
		StyleID:   "baroque",
	})
	if err == nil {
		t.Fatal("unknown style accepted")
	}
	if f.tr.callCount() != 0 {
		t.Error("transformer must not run for an invalid style")
	}
}

func TestGenerateNoSource(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.orch.Generate(context.Background(), GenerateParams{
		AccountID: f.owner,
		StyleID:   "modern",
	})
	if !errors.Is(err, errs.ErrNoSourceImage) {
		t.Fatalf("err = %v, want ErrNoSourceImage", err)
	}
}

func TestBadCredentialHook(t *testing.T) {
	f := newFixture(t, 3)
	f.tr.err = errs.ErrInvalidCredential

	fired := false
	f.orch.OnBadCredential(func() { fired = true })

	_, err := f.generate(context.Background())
	if !errors.Is(err, errs.ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
	if !fired {
		t.Error("bad-credential hook did not fire")
	}
}

func TestSingleRequestInFlight(t *testing.T) {
	f := newFixture(t, 3)
	gate := make(chan struct{})
	entered := make(chan struct{})
	f.tr.gate = gate
	f.tr.entered = entered
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := f.generate(ctx)
		first <- err
	}()
	<-entered

	_, err := f.generate(ctx)
	if !errors.Is(err, errs.ErrGenerationInFlight) {
		t.Fatalf("concurrent err = %v, want ErrGenerationInFlight", err)
	}

	close(gate)
	if err := <-first; err != nil {
		t.Fatalf("first request: %v", err)
	}

	// The guard releases once the request finishes.
	if _, err := f.generate(ctx); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestCaptionTimerAdvancesWithClock(t *testing.T) {
	clk := clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	f := newFixtureWithClock(t, 3, clk)
	gate := make(chan struct{})
	entered := make(chan struct{})
	f.tr.gate = gate
	f.tr.entered = entered

	captions := make(chan string, len(Captions))
	f.orch.OnCaption(func(c string) { captions <- c })

	result := make(chan error, 1)
	go func() {
		_, err := f.generate(context.Background())
		result <- err
	}()
	<-entered

	if c, active := f.orch.Progress().Caption(); !active || c != Captions[0] {
		t.Fatalf("in flight: caption %q active %v", c, active)
	}

	// Each interval crossed delivers exactly the next caption.
	clk.Advance(CaptionInterval * time.Millisecond)
	if got := <-captions; got != Captions[1] {
		t.Errorf("first tick: %q, want %q", got, Captions[1])
	}
	clk.Advance(CaptionInterval * time.Millisecond)
	if got := <-captions; got != Captions[2] {
		t.Errorf("second tick: %q, want %q", got, Captions[2])
	}

	close(gate)
	if err := <-result; err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, active := f.orch.Progress().Caption(); active {
		t.Error("progress still active after the request finished")
	}
}

func TestRefine(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	rec, err := f.orch.Refine(ctx, RefineParams{
		AccountID:   f.owner,
		Source:      []byte("room-photo"),
		Prior:       []byte("staged-v1"),
		Instruction: "Add more plants",
		RoomType:    "Living Room",
		AspectRatio: "16:9",
	})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if rec.Style != RefinementLabel {
		t.Errorf("style label = %q, want %q", rec.Style, RefinementLabel)
	}

	req := f.tr.lastRequest()
	if string(req.Image) != "staged-v1" {
		t.Errorf("refine must send the prior result, sent %q", req.Image)
	}
	if !strings.Contains(req.Instruction, "Refine this design with the following request: Add more plants.") {
		t.Errorf("instruction = %q", req.Instruction)
	}

	// Refinements consume credits and land in history like any generation.
	bal, _ := f.ledger.Balance(ctx, f.owner)
	if bal != 2 {
		t.Errorf("balance = %d, want 2", bal)
	}
	recs, _ := f.history.List(ctx, f.owner)
	if len(recs) != 1 || string(recs[0].Original) != "room-photo" {
		t.Errorf("history entry must keep the original upload")
	}
}

func TestRefineValidation(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	if _, err := f.orch.Refine(ctx, RefineParams{
		AccountID: f.owner, Prior: []byte("x"),
	}); err == nil {
		t.Error("empty instruction accepted")
	}
	if _, err := f.orch.Refine(ctx, RefineParams{
		AccountID: f.owner, Instruction: "brighter",
	}); !errors.Is(err, errs.ErrNoSourceImage) {
		t.Errorf("err = %v, want ErrNoSourceImage", err)
	}
}
