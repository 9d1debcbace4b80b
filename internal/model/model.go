// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// PlanTier is a named entitlement level controlling credit grants.
type PlanTier string

// Known plan tiers.
const (
	PlanFree       PlanTier = "FREE"
	PlanPro        PlanTier = "PRO"
	PlanPower      PlanTier = "POWER"
	PlanManaged    PlanTier = "MANAGED"
	PlanEnterprise PlanTier = "ENTERPRISE"
)

// ValidPlan reports whether p is one of the known tiers.
func ValidPlan(p PlanTier) bool {
	switch p {
	case PlanFree, PlanPro, PlanPower, PlanManaged, PlanEnterprise:
		return true
	}
	return false
}

// UnlimitedCredits is the balance sentinel for unlimited accounts.
// It must never be decremented.
const UnlimitedCredits = -1

// SignupCredits is the balance granted to every new FREE account.
const SignupCredits = 3

// NormalizeEmail lower-cases and trims an email so it can serve as a store key.
// Every store key and every lookup uses this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Account is a registered user. The secret is never stored in plaintext.
type Account struct {
	ID           uuid.UUID
	Email        string // always normalized
	Name         string
	SecretHash   []byte // Argon2id(secret, SecretSalt)
	SecretSalt   []byte
	Plan         PlanTier
	Credits      int // >= -1; -1 means unlimited
	JoinedAt     time.Time
	ProfileImage []byte // optional JPEG/PNG bytes
	IsAdmin      bool
}

// Unlimited reports whether the account holds the unlimited-credit sentinel.
func (a *Account) Unlimited() bool { return a.Credits == UnlimitedCredits }

// Redact projects the account into a Session safe to hand to the UI.
func (a *Account) Redact() Session {
	return Session{
		AccountID: a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Plan:      a.Plan,
		Credits:   a.Credits,
		JoinedAt:  a.JoinedAt,
		IsAdmin:   a.IsAdmin,
	}
}

// Session is the client's current view of one authenticated account.
// It carries no secret material and is refreshed from the store on every
// ledger or profile mutation.
type Session struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Plan      PlanTier  `json:"plan"`
	Credits   int       `json:"credits"`
	JoinedAt  time.Time `json:"joined_at"`
	IsAdmin   bool      `json:"is_admin"`
}

// GenerationResult is one completed transform, kept in the durable history log.
type GenerationResult struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Original    []byte // source image as sent
	Transformed []byte // image returned by the service
	Style       string // style label, e.g. "Modern"
	CreatedAt   time.Time
}
