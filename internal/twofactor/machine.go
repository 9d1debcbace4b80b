// Package twofactor implements the verification flow that gates completion
// of login and signup: FORM -> VERIFY_2FA -> session established, with a
// forgot-password branch reachable only from FORM.
package twofactor

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/brianking74/Property-Stage/internal/clock"
	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
)

// Step is a state of the verification machine.
type Step int

// Machine steps.
const (
	StepForm Step = iota
	StepVerify
	StepForgot
	StepDone
)

// CodeLength is the number of digits in an issued code. Entering the final
// digit auto-submits verification.
const CodeLength = 6

// ResendCooldown is the minimum interval between issued codes.
const ResendCooldown = 30 * time.Second

// Machine holds one transient verification attempt. It is never persisted:
// abandoning the flow discards the pending account and the issued code.
type Machine struct {
	step     Step
	pending  *model.Account
	code     string
	issuedAt time.Time
	digits   []byte
	clk      clock.Clock
}

// New constructs a machine in the FORM step.
func New(clk clock.Clock) *Machine {
	return &Machine{step: StepForm, clk: clk}
}

// Step returns the current step.
func (m *Machine) Step() Step { return m.step }

// Pending returns the account awaiting verification, or nil.
func (m *Machine) Pending() *model.Account { return m.pending }

// Begin moves FORM -> VERIFY_2FA for an account whose credentials already
// checked out, issuing a fresh code. The code is returned so the caller can
// deliver it out of band.
func (m *Machine) Begin(a *model.Account) (string, error) {
	if m.step != StepForm {
		return "", errs.ErrBadStep
	}
	if a == nil {
		return "", fmt.Errorf("twofactor: nil account")
	}
	m.pending = a
	m.step = StepVerify
	return m.issue()
}

// Resend reissues a code once the cooldown has elapsed. The previous code is
// invalidated; only the latest issued code ever verifies.
func (m *Machine) Resend() (string, error) {
	if m.step != StepVerify {
		return "", errs.ErrBadStep
	}
	if m.CooldownRemaining() > 0 {
		return "", errs.ErrResendCooldown
	}
	return m.issue()
}

// CooldownRemaining reports how long until resend is allowed again.
func (m *Machine) CooldownRemaining() time.Duration {
	if m.step != StepVerify {
		return 0
	}
	rem := ResendCooldown - m.clk.Now().Sub(m.issuedAt)
	if rem < 0 {
		return 0
	}
	return rem
}

// EnterDigit appends one digit to the entry buffer. On the final digit the
// machine verifies automatically: a match moves to StepDone, a mismatch
// clears the buffer and returns errs.ErrCodeMismatch while staying in
// VERIFY_2FA. Non-digit input is ignored.
func (m *Machine) EnterDigit(c byte) (bool, error) {
	if m.step != StepVerify {
		return false, errs.ErrBadStep
	}
	if c < '0' || c > '9' {
		return false, nil
	}
	m.digits = append(m.digits, c)
	if len(m.digits) < CodeLength {
		return false, nil
	}
	entered := string(m.digits)
	m.digits = m.digits[:0]
	if entered != m.code {
		return false, errs.ErrCodeMismatch
	}
	m.step = StepDone
	return true, nil
}

// EnteredDigits returns how many digits are currently buffered.
func (m *Machine) EnteredDigits() int { return len(m.digits) }

// Account returns the verified account after StepDone.
func (m *Machine) Account() (*model.Account, error) {
	if m.step != StepDone {
		return nil, errs.ErrBadStep
	}
	return m.pending, nil
}

// Back abandons verification: the pending account and issued code are
// discarded and the machine returns to FORM.
func (m *Machine) Back() {
	m.pending = nil
	m.code = ""
	m.digits = nil
	m.issuedAt = time.Time{}
	m.step = StepForm
}

// ForgotPassword enters the reset branch; only reachable from FORM.
func (m *Machine) ForgotPassword() error {
	if m.step != StepForm {
		return errs.ErrBadStep
	}
	m.step = StepForgot
	return nil
}

// ReturnToForm leaves the forgot-password branch.
func (m *Machine) ReturnToForm() {
	if m.step == StepForgot {
		m.step = StepForm
	}
}

func (m *Machine) issue() (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	m.code = code
	m.digits = m.digits[:0]
	m.issuedAt = m.clk.Now()
	return code, nil
}

// randomCode returns a 6-digit numeric code in [100000, 999999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
