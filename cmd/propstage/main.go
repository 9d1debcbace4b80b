// Command propstage is the PropertyStage CLI: account management, credit
// plans, and AI staging of property photos.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/repository"
	"github.com/brianking74/Property-Stage/internal/repository/sqlite"
	"github.com/brianking74/Property-Stage/internal/sanitize"
	"github.com/brianking74/Property-Stage/internal/service"
	"github.com/brianking74/Property-Stage/internal/session"
	"github.com/brianking74/Property-Stage/internal/staging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- config dir ----

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "propertystage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "propertystage")
}

func defaultDBPath() string { return filepath.Join(cfgDir(), "propertystage.db") }

// ---- app wiring ----

type app struct {
	db       *sql.DB
	identity service.IdentityService
	ledger   service.LedgerService
	history  service.HistoryService
	log      *zap.Logger
}

func openApp(ctx context.Context, dbPath string, log *zap.Logger) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clk := clock.System{}
	accounts := sqlite.NewAccountRepo(db)
	historyRepo := sqlite.NewHistoryRepo(db, repository.DefaultHistoryCap)
	sessions := session.NewFileStore(cfgDir())

	identity := service.NewIdentityService(accounts, sessions, clk)
	if err := identity.SeedAdmin(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	return &app{
		db:       db,
		identity: identity,
		ledger:   service.NewLedgerService(accounts),
		history:  service.NewHistoryService(historyRepo, clk),
		log:      log,
	}, nil
}

func (a *app) close() { _ = a.db.Close() }

// requireSession restores the current session or fails the command.
func (a *app) requireSession(ctx context.Context) model.Session {
	sess, err := a.identity.Restore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "not logged in (run: propstage login)")
		os.Exit(1)
	}
	return sess
}

func (a *app) newOrchestrator(ctx context.Context) (*staging.Orchestrator, error) {
	tr, err := staging.NewGeminiTransformer(ctx, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		return nil, err
	}
	orch := staging.NewOrchestrator(a.ledger, a.history, tr, clock.System{}, a.log)
	orch.OnCaption(func(c string) { fmt.Fprintf(os.Stderr, "\r\033[K%s", c) })
	orch.OnBadCredential(func() {
		fmt.Fprintln(os.Stderr, "\nset a valid key in GEMINI_API_KEY and try again")
	})
	return orch, nil
}

// transformTimeout bounds one staging round-trip against the image service.
const transformTimeout = 5 * time.Minute

// transformCtx derives a per-call deadline from parent. Each transform gets
// a fresh budget; the parent context stays undeadlined.
func transformCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, transformTimeout)
}

// ---- helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// fail prints the role-appropriate message for err and exits.
func fail(err error, admin bool) {
	fmt.Fprintln(os.Stderr, sanitize.Sanitize(err, admin))
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `propstage CLI
Usage:
  propstage [-db file] [-model name] <cmd> [args]

Commands:
  version
  signup     -email <addr> [-name <name>]
  login      -email <addr>
  logout
  whoami
  accounts                                  (admin only)
  upgrade    -plan <tier> -credits <n>      (-1 = unlimited)
  set-image  -file <img>
  history
  export     -id <uuid> -out <file>
  stage      -file <img> -style <id> [-room <type>] [-ratio <r>] [-res <r>] -out <file>
  refine     -text <instruction> [-id <uuid>] -out <file>
  studio                                    (interactive session)
`)
	os.Exit(2)
}

// ---- main ----

func main() {
	dbPath := flag.String("db", defaultDBPath(), "path to the local store")
	modelName := flag.String("model", staging.DefaultModel, "image model")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("propstage %s (%s)\n", version, buildDate)
		return
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	// No deadline here: interactive sessions (studio, the 2FA prompt) must
	// not expire as a whole. Transform round-trips get their own timeout.
	ctx := context.Background()

	a, err := openApp(ctx, *dbPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.close()

	switch cmd {
	case "signup":
		cmdSignup(ctx, a, args)
	case "login":
		cmdLogin(ctx, a, args)
	case "logout":
		if err := a.identity.Logout(); err != nil {
			fail(err, false)
		}
		fmt.Println("ok")
	case "whoami":
		printJSON(a.requireSession(ctx))
	case "accounts":
		cmdAccounts(ctx, a)
	case "upgrade":
		cmdUpgrade(ctx, a, args)
	case "set-image":
		cmdSetImage(ctx, a, args)
	case "history":
		cmdHistory(ctx, a)
	case "export":
		cmdExport(ctx, a, args)
	case "stage":
		cmdStage(ctx, a, args, *modelName)
	case "refine":
		cmdRefine(ctx, a, args, *modelName)
	case "studio":
		runStudio(ctx, a, *modelName)
	default:
		usage()
	}
}

func cmdAccounts(ctx context.Context, a *app) {
	sess := a.requireSession(ctx)
	if !sess.IsAdmin {
		fmt.Fprintln(os.Stderr, "admin only")
		os.Exit(1)
	}
	all, err := a.identity.ListAccounts(ctx)
	if err != nil {
		fail(err, true)
	}
	type row struct {
		ID      string         `json:"id"`
		Email   string         `json:"email"`
		Name    string         `json:"name"`
		Plan    model.PlanTier `json:"plan"`
		Credits int            `json:"credits"`
		Admin   bool           `json:"admin"`
	}
	rows := make([]row, 0, len(all))
	for _, acct := range all {
		rows = append(rows, row{
			ID: acct.ID.String(), Email: acct.Email, Name: acct.Name,
			Plan: acct.Plan, Credits: acct.Credits, Admin: acct.IsAdmin,
		})
	}
	printJSON(rows)
}

func cmdUpgrade(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	plan := fs.String("plan", "", "plan tier (FREE|PRO|POWER|MANAGED|ENTERPRISE)")
	credits := fs.Int("credits", 0, "absolute credit amount (-1 = unlimited)")
	_ = fs.Parse(args)
	sess := a.requireSession(ctx)

	acct, err := a.ledger.SetBalance(ctx, sess.AccountID, model.PlanTier(*plan), *credits)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	printJSON(acct.Redact())
}

func cmdSetImage(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("set-image", flag.ExitOnError)
	file := fs.String("file", "", "image file")
	_ = fs.Parse(args)
	sess := a.requireSession(ctx)
	if *file == "" {
		fmt.Fprintln(os.Stderr, "need -file")
		os.Exit(1)
	}
	img, err := os.ReadFile(*file)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	if _, err := a.identity.UpdateProfileImage(ctx, sess.AccountID, img); err != nil {
		fail(err, sess.IsAdmin)
	}
	fmt.Println("ok")
}

func cmdHistory(ctx context.Context, a *app) {
	sess := a.requireSession(ctx)
	recs, err := a.history.List(ctx, sess.AccountID)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	type row struct {
		ID    string `json:"id"`
		Style string `json:"style"`
		At    string `json:"at"`
	}
	rows := make([]row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, row{ID: r.ID.String(), Style: r.Style, At: r.CreatedAt.Format(time.RFC3339)})
	}
	printJSON(rows)
}

func cmdExport(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	id := fs.String("id", "", "history entry id")
	out := fs.String("out", "", "output file")
	_ = fs.Parse(args)
	sess := a.requireSession(ctx)
	if *id == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "need -id and -out")
		os.Exit(1)
	}
	rid, err := uuid.FromString(*id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad id")
		os.Exit(1)
	}
	rec, err := a.history.Reopen(ctx, sess.AccountID, rid)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	if err := os.WriteFile(*out, rec.Transformed, 0o644); err != nil {
		fail(err, sess.IsAdmin)
	}
	fmt.Println(*out)
}

func cmdStage(ctx context.Context, a *app, args []string, modelName string) {
	fs := flag.NewFlagSet("stage", flag.ExitOnError)
	file := fs.String("file", "", "source photo")
	styleID := fs.String("style", "modern", "style preset id")
	room := fs.String("room", "Living Room", "room context")
	ratio := fs.String("ratio", staging.AspectRatioAuto, "aspect ratio")
	res := fs.String("res", "1K", "resolution (1K|2K|4K)")
	out := fs.String("out", "staged.jpg", "output file")
	_ = fs.Parse(args)
	sess := a.requireSession(ctx)

	if *file == "" {
		fail(errs.ErrNoSourceImage, sess.IsAdmin)
	}
	img, err := os.ReadFile(*file)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	w, h := imageDims(img)

	orch, err := a.newOrchestrator(ctx)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	tctx, cancel := transformCtx(ctx)
	defer cancel()
	rec, err := orch.Generate(tctx, staging.GenerateParams{
		AccountID:   sess.AccountID,
		Source:      img,
		StyleID:     *styleID,
		RoomType:    *room,
		AspectRatio: *ratio,
		Width:       w,
		Height:      h,
		Resolution:  *res,
		Model:       modelName,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	if err := os.WriteFile(*out, rec.Transformed, 0o644); err != nil {
		fail(err, sess.IsAdmin)
	}
	fmt.Println(*out)
}

func cmdRefine(ctx context.Context, a *app, args []string, modelName string) {
	fs := flag.NewFlagSet("refine", flag.ExitOnError)
	text := fs.String("text", "", "refinement instruction")
	id := fs.String("id", "", "history entry to refine (default: latest)")
	room := fs.String("room", "Living Room", "room context")
	ratio := fs.String("ratio", staging.AspectRatioAuto, "aspect ratio")
	res := fs.String("res", "1K", "resolution")
	out := fs.String("out", "refined.jpg", "output file")
	_ = fs.Parse(args)
	sess := a.requireSession(ctx)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "need -text")
		os.Exit(1)
	}

	var rec *model.GenerationResult
	if *id != "" {
		rid, err := uuid.FromString(*id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad id")
			os.Exit(1)
		}
		r, err := a.history.Reopen(ctx, sess.AccountID, rid)
		if err != nil {
			fail(err, sess.IsAdmin)
		}
		rec = r
	} else {
		recs, err := a.history.List(ctx, sess.AccountID)
		if err != nil {
			fail(err, sess.IsAdmin)
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "no history to refine; run stage first")
			os.Exit(1)
		}
		rec = &recs[0]
	}

	w, h := imageDims(rec.Transformed)

	orch, err := a.newOrchestrator(ctx)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	tctx, cancel := transformCtx(ctx)
	defer cancel()
	refined, err := orch.Refine(tctx, staging.RefineParams{
		AccountID:   sess.AccountID,
		Source:      rec.Original,
		Prior:       rec.Transformed,
		Instruction: *text,
		RoomType:    *room,
		AspectRatio: *ratio,
		Width:       w,
		Height:      h,
		Resolution:  *res,
		Model:       modelName,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fail(err, sess.IsAdmin)
	}
	if err := os.WriteFile(*out, refined.Transformed, 0o644); err != nil {
		fail(err, sess.IsAdmin)
	}
	fmt.Println(*out)
}
