package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianking74/Property-Stage/internal/edit"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/sanitize"
	"github.com/brianking74/Property-Stage/internal/staging"
)

// studio is the interactive editing session: one uploaded photo, a stack of
// staged results with undo/redo, and the persistent history alongside.
type studio struct {
	app  *app
	sess model.Session
	orch *staging.Orchestrator

	edit *edit.Session
	recs []model.GenerationResult // last listing, for "open <n>"

	styleID  string
	roomType string
	ratio    string
	res      string
	model    string
}

func runStudio(ctx context.Context, a *app, modelName string) {
	sess := a.requireSession(ctx)
	orch, err := a.newOrchestrator(ctx)
	if err != nil {
		fail(err, sess.IsAdmin)
	}

	st := &studio{
		app:      a,
		sess:     sess,
		orch:     orch,
		styleID:  "modern",
		roomType: "Living Room",
		ratio:    staging.AspectRatioAuto,
		res:      "1K",
		model:    modelName,
	}

	fmt.Fprintf(os.Stderr, "studio: %s (%s) - type 'help'\n", sess.Name, sess.Plan)
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			st.help()
		case "upload":
			st.upload(rest)
		case "style":
			st.setStyle(rest)
		case "room":
			st.setRoom(rest)
		case "ratio":
			st.ratio = rest
		case "res":
			st.res = rest
		case "stage":
			st.stage(ctx)
		case "refine":
			st.refine(ctx, rest)
		case "undo":
			st.undo()
		case "redo":
			st.redo()
		case "history":
			st.listHistory(ctx)
		case "open":
			st.open(ctx, rest)
		case "save":
			st.save(rest)
		case "credits":
			st.credits(ctx)
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (try 'help')\n", cmd)
		}
	}
}

func (st *studio) help() {
	fmt.Fprint(os.Stderr, `commands:
  upload <file>     load a room photo and start a fresh session
  style <id>        pick a style preset (list with bare 'style')
  room <type>       set the room context (list with bare 'room')
  ratio <r>         aspect ratio (Auto, 1:1, 3:4, 4:3, 9:16, 16:9)
  res <r>           resolution (1K, 2K, 4K)
  stage             run the staging transform
  refine <text>     refine the current result
  undo / redo       move through results
  history           list saved generations
  open <n>          reopen history entry n in the session
  save <file>       write the current image to a file
  credits           show remaining credits
  quit
`)
}

func (st *studio) say(err error) {
	fmt.Fprintln(os.Stderr, sanitize.Sanitize(err, st.sess.IsAdmin))
}

func (st *studio) upload(path string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: upload <file>")
		return
	}
	img, err := os.ReadFile(path)
	if err != nil {
		st.say(err)
		return
	}
	st.edit = edit.NewSession(img)
	w, h := imageDims(img)
	fmt.Fprintf(os.Stderr, "loaded %s (%dx%d)\n", path, w, h)
}

func (st *studio) setStyle(id string) {
	if id == "" {
		for _, s := range staging.Styles {
			fmt.Fprintf(os.Stderr, "  %-12s %s\n", s.ID, s.Label)
		}
		return
	}
	if _, ok := staging.StyleByID(id); !ok {
		fmt.Fprintf(os.Stderr, "unknown style %q\n", id)
		return
	}
	st.styleID = id
}

func (st *studio) setRoom(name string) {
	if name == "" {
		for _, r := range staging.RoomTypes {
			fmt.Fprintf(os.Stderr, "  %s\n", r)
		}
		return
	}
	st.roomType = name
}

// refinePrior returns the result a refinement operates on. Refinement only
// applies to a generated result, never to the bare upload.
func (st *studio) refinePrior() ([]byte, bool) {
	if st.edit == nil || st.edit.Current() == nil {
		return nil, false
	}
	return st.edit.Current(), true
}

// currentImage is what save and display operate on: the latest result, or
// the upload when nothing has been generated yet.
func (st *studio) currentImage() []byte {
	if st.edit == nil {
		return nil
	}
	if cur := st.edit.Current(); cur != nil {
		return cur
	}
	return st.edit.Source()
}

func (st *studio) stage(ctx context.Context) {
	if st.edit == nil {
		fmt.Fprintln(os.Stderr, "upload a photo first")
		return
	}
	w, h := imageDims(st.edit.Source())
	tctx, cancel := transformCtx(ctx)
	defer cancel()
	rec, err := st.orch.Generate(tctx, staging.GenerateParams{
		AccountID:   st.sess.AccountID,
		Source:      st.edit.Source(),
		StyleID:     st.styleID,
		RoomType:    st.roomType,
		AspectRatio: st.ratio,
		Width:       w,
		Height:      h,
		Resolution:  st.res,
		Model:       st.model,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		st.say(err)
		return
	}
	st.edit.Push(rec.Transformed)
	fmt.Fprintf(os.Stderr, "staged (%s), %d bytes - 'save <file>' to export\n", rec.Style, len(rec.Transformed))
}

func (st *studio) refine(ctx context.Context, text string) {
	if st.edit == nil {
		fmt.Fprintln(os.Stderr, "upload a photo first")
		return
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: refine <instruction>, e.g.:")
		for _, s := range staging.QuickFeedback {
			fmt.Fprintf(os.Stderr, "  refine %s\n", s)
		}
		return
	}
	prior, ok := st.refinePrior()
	if !ok {
		fmt.Fprintln(os.Stderr, "stage a result first; refinement works on a generated image")
		return
	}
	w, h := imageDims(prior)
	tctx, cancel := transformCtx(ctx)
	defer cancel()
	rec, err := st.orch.Refine(tctx, staging.RefineParams{
		AccountID:   st.sess.AccountID,
		Source:      st.edit.Source(),
		Prior:       prior,
		Instruction: text,
		RoomType:    st.roomType,
		AspectRatio: st.ratio,
		Width:       w,
		Height:      h,
		Resolution:  st.res,
		Model:       st.model,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		st.say(err)
		return
	}
	st.edit.Push(rec.Transformed)
	fmt.Fprintf(os.Stderr, "refined, %d bytes\n", len(rec.Transformed))
}

func (st *studio) undo() {
	if st.edit == nil || !st.edit.CanUndo() {
		fmt.Fprintln(os.Stderr, "nothing to undo")
		return
	}
	st.edit.Undo()
	if st.edit.Current() == nil {
		fmt.Fprintln(os.Stderr, "back to the original photo")
	} else {
		fmt.Fprintln(os.Stderr, "undone")
	}
}

func (st *studio) redo() {
	if st.edit == nil || !st.edit.CanRedo() {
		fmt.Fprintln(os.Stderr, "nothing to redo")
		return
	}
	st.edit.Redo()
	fmt.Fprintln(os.Stderr, "redone")
}

func (st *studio) listHistory(ctx context.Context) {
	recs, err := st.app.history.List(ctx, st.sess.AccountID)
	if err != nil {
		st.say(err)
		return
	}
	st.recs = recs
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "no generations yet")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(os.Stderr, "  %2d  %-12s %s\n", i+1, r.Style, r.CreatedAt.Format(time.RFC3339))
	}
}

func (st *studio) open(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		fmt.Fprintln(os.Stderr, "usage: open <n> (from 'history')")
		return
	}
	if st.recs == nil {
		st.listHistory(ctx)
	}
	if n > len(st.recs) {
		fmt.Fprintln(os.Stderr, "no such entry")
		return
	}
	r := st.recs[n-1]
	if st.edit == nil {
		st.edit = edit.NewSession(r.Original)
	}
	st.edit.Reset(r.Original, r.Transformed)
	fmt.Fprintf(os.Stderr, "reopened %s from %s\n", r.Style, r.CreatedAt.Format(time.RFC3339))
}

func (st *studio) save(path string) {
	img := st.currentImage()
	if len(img) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to save")
		return
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: save <file>")
		return
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		st.say(err)
		return
	}
	fmt.Fprintln(os.Stderr, path)
}

func (st *studio) credits(ctx context.Context) {
	bal, err := st.app.ledger.Balance(ctx, st.sess.AccountID)
	if err != nil {
		st.say(err)
		return
	}
	if bal == model.UnlimitedCredits {
		fmt.Fprintln(os.Stderr, "credits: unlimited")
		return
	}
	fmt.Fprintf(os.Stderr, "credits: %d\n", bal)
}
