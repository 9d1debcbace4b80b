package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
	"github.com/brianking74/Property-Stage/internal/twofactor"
)

func cmdSignup(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name (defaults to the email's local part)")
	_ = fs.Parse(args)
	if *email == "" {
		fmt.Fprintln(os.Stderr, "need -email")
		os.Exit(1)
	}

	secret, err := promptSecret("choose a password")
	if err != nil {
		fail(err, false)
	}
	acct, err := a.identity.Signup(ctx, *email, *name, secret)
	if err != nil {
		fail(err, false)
	}
	verifyAndEstablish(ctx, a, acct)
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)
	if *email == "" {
		fmt.Fprintln(os.Stderr, "need -email")
		os.Exit(1)
	}

	secret, err := promptSecret("password")
	if err != nil {
		fail(err, false)
	}
	acct, err := a.identity.Login(ctx, *email, secret)
	if err != nil {
		fail(err, false)
	}
	verifyAndEstablish(ctx, a, acct)
}

// verifyAndEstablish runs the second factor and, on success, commits the
// session and prints it.
func verifyAndEstablish(ctx context.Context, a *app, acct *model.Account) {
	m := twofactor.New(clock.System{})
	code, err := m.Begin(acct)
	if err != nil {
		fail(err, acct.IsAdmin)
	}
	deliverCode(acct.Email, code)

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "code (6 digits, or 'resend' / 'back'): ")
		line, err := in.ReadString('\n')
		if err != nil {
			fail(err, acct.IsAdmin)
		}
		line = strings.TrimSpace(line)

		switch line {
		case "resend":
			code, err := m.Resend()
			if errors.Is(err, errs.ErrResendCooldown) {
				fmt.Fprintf(os.Stderr, "wait %ds before resending\n", int(m.CooldownRemaining().Seconds()))
				continue
			}
			if err != nil {
				fail(err, acct.IsAdmin)
			}
			deliverCode(acct.Email, code)
			continue
		case "back":
			m.Back()
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(1)
		}

		done := false
		for i := 0; i < len(line) && !done; i++ {
			done, err = m.EnterDigit(line[i])
			if errors.Is(err, errs.ErrCodeMismatch) {
				fmt.Fprintln(os.Stderr, "code does not match, try again")
				break
			}
			if err != nil {
				fail(err, acct.IsAdmin)
			}
		}
		if !done {
			continue
		}

		verified, err := m.Account()
		if err != nil {
			fail(err, acct.IsAdmin)
		}
		sess, err := a.identity.Establish(ctx, verified.ID)
		if err != nil {
			fail(err, acct.IsAdmin)
		}
		printJSON(sess)
		return
	}
}

// deliverCode stands in for an out-of-band delivery channel.
func deliverCode(email, code string) {
	fmt.Fprintf(os.Stderr, "[verification] code for %s: %s\n", email, code)
}

func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		r := bufio.NewReader(os.Stdin)
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// imageDims decodes just the header to get pixel dimensions; zero values on
// any failure keep aspect selection on its fallback.
func imageDims(img []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
