package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/apex/log"
)

const (
	codeTTL = 10 * time.Minute
)

var (
	// ErrUserNotFound means no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoPendingOtp means no code was ever issued for the email.
	ErrNoPendingOtp = errors.New("no OTP sent for this email")
	// ErrInvalidOrExpired means the code differs or its TTL elapsed.
	ErrInvalidOrExpired = errors.New("invalid or expired OTP")
)

// UserDirectory answers whether an account exists for an email.
type UserDirectory interface {
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
}

// CredentialUpdater replaces the stored secret for an account.
type CredentialUpdater interface {
	UpdatePassword(ctx context.Context, email, newPassword string) error
}

// Sender dispatches the code out-of-band.
type Sender interface {
	SendOtpEmail(email, code string) error
}

// Authority issues, verifies and consumes one-time passcodes for
// password reset. The store is injected so tests can run against a fake
// clock without touching process-wide state.
type Authority struct {
	store Store
	users UserDirectory
	creds CredentialUpdater
	send  Sender
	now   func() time.Time
}

// NewAuthority wires an Authority. A nil now defaults to time.Now.
func NewAuthority(store Store, users UserDirectory, creds CredentialUpdater, send Sender, now func() time.Time) *Authority {
	if now == nil {
		now = time.Now
	}
	return &Authority{store: store, users: users, creds: creds, send: send, now: now}
}

// Issue generates a fresh 6-digit code for the email, overwriting any
// previous live code, and dispatches it. An in-flight earlier code
// becomes invalid, which is the intended effect of "resend OTP".
func (a *Authority) Issue(ctx context.Context, email string) error {
	exists, err := a.users.UserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	a.store.Put(email, Record{Code: code, ExpiresAt: a.now().Add(codeTTL)})

	if err := a.send.SendOtpEmail(email, code); err != nil {
		log.WithError(err).Errorf("Failed to send OTP email to %s", email)
		return fmt.Errorf("failed to send OTP: %w", err)
	}
	return nil
}

// Verify checks the code without consuming it; the record stays until
// the reset completes. Expired records are evicted on this lookup.
func (a *Authority) Verify(email, code string) error {
	rec, ok := a.store.Get(email)
	if !ok {
		return ErrNoPendingOtp
	}
	if a.now().After(rec.ExpiresAt) {
		a.store.Delete(email)
		return ErrInvalidOrExpired
	}
	if rec.Code != code {
		return ErrInvalidOrExpired
	}
	return nil
}

// ConsumeAndReset updates the credential and deletes the OTP record. On
// any failure the record is left in place so the user may retry
// verification, except expiry, which evicts it.
func (a *Authority) ConsumeAndReset(ctx context.Context, email, newPassword string) error {
	rec, ok := a.store.Get(email)
	if !ok {
		return ErrNoPendingOtp
	}
	if a.now().After(rec.ExpiresAt) {
		a.store.Delete(email)
		return ErrInvalidOrExpired
	}

	if err := a.creds.UpdatePassword(ctx, email, newPassword); err != nil {
		return err
	}

	a.store.Delete(email)
	return nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
