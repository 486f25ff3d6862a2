package token

import (
	"time"
)

// Machine-readable verdict reasons
const (
	ReasonOK               = "ok"
	ReasonInvalidSignature = "invalid_signature"
	ReasonExpired          = "expired"
	ReasonInvalidFormat    = "invalid_format"
	ReasonValidationError  = "validation_error"
)

// Verdict of a single validation call. Constructed fresh every time, never
// persisted.
type Verdict struct {
	Valid  bool
	Reason string

	SessionID string
	IssuedAt  int64
	ExpiresAt int64

	// Whole minutes until expiry, only meaningful when Valid
	TimeRemainingMinutes int
}

// Validator decides token acceptance from the signature and the derived
// expiry. It never returns an error or panics to its caller: every outcome,
// including an internal fault, is a Verdict.
type Validator struct {
	signer *Signer
	now    func() time.Time
}

type ValidatorOption func(*Validator)

func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

func NewValidator(signer *Signer, opts ...ValidatorOption) *Validator {
	v := &Validator{
		signer: signer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks the signature strictly before the expiry. A forged token
// always reads as invalid_signature whether its timer elapsed or not, so
// timing reveals nothing about the expiry of a forgery.
func (v *Validator) Validate(sessionID string, signature string, issuedAt int64, validityMinutes int) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Valid: false, Reason: ReasonValidationError}
		}
	}()

	expiresAt := issuedAt + int64(validityMinutes)*millisPerMinute

	if !v.signer.Verify(sessionID, issuedAt, expiresAt, signature) {
		return Verdict{Valid: false, Reason: ReasonInvalidSignature}
	}

	now := v.now().UnixMilli()
	if now > expiresAt {
		return Verdict{
			Valid:     false,
			Reason:    ReasonExpired,
			SessionID: sessionID,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		}
	}

	return Verdict{
		Valid:                true,
		Reason:               ReasonOK,
		SessionID:            sessionID,
		IssuedAt:             issuedAt,
		ExpiresAt:            expiresAt,
		TimeRemainingMinutes: int((expiresAt - now) / millisPerMinute),
	}
}

// ValidateURL parses a scanned URL and validates the token inside it.
// A URL missing any field yields invalid_format without touching the signer.
func (v *Validator) ValidateURL(raw string, validityMinutes int) Verdict {
	decoded := ParseURL(raw)
	if decoded == nil {
		return Verdict{Valid: false, Reason: ReasonInvalidFormat}
	}

	return v.Validate(decoded.SessionID, decoded.Signature, decoded.IssuedAt, validityMinutes)
}
