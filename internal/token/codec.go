package token

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const millisPerMinute = 60_000

// Issued token as handed to the delivery layer. ExpiresAt is always derived
// from IssuedAt plus the validity window, never stored on its own, so
// generation and verification cannot drift apart.
type Issued struct {
	SessionID string
	IssuedAt  int64
	ExpiresAt int64
	Signature string
	URL       string
}

// Decoded fields extracted back from a delivery URL.
type Decoded struct {
	SessionID string
	Signature string
	IssuedAt  int64
}

// Codec issues signed session tokens and renders them as attendance URLs.
type Codec struct {
	signer  *Signer
	baseURL string
	now     func() time.Time
}

type CodecOption func(*Codec)

// WithCodecClock overrides the time source. Tests use it to pin issuedAt.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(signer *Signer, baseURL string, opts ...CodecOption) *Codec {
	c := &Codec{
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Issue creates a signed token for the session valid for validityMinutes
// from now. Range checking of validityMinutes belongs to the boundary that
// accepts external input, not here.
func (c *Codec) Issue(sessionID string, validityMinutes int) Issued {
	issuedAt := c.now().UnixMilli()
	expiresAt := issuedAt + int64(validityMinutes)*millisPerMinute
	signature := c.signer.Sign(sessionID, issuedAt, expiresAt)

	return Issued{
		SessionID: sessionID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Signature: signature,
		URL:       c.AttendanceURL(sessionID, signature, issuedAt),
	}
}

// AttendanceURL embeds the session id as the last path segment and the
// signature and issue timestamp as query parameters. The signature is
// percent-encoded since hex is URL-safe today but the encoding must not
// depend on that.
func (c *Codec) AttendanceURL(sessionID string, signature string, issuedAt int64) string {
	query := url.Values{}
	query.Set("signature", signature)
	query.Set("timestamp", strconv.FormatInt(issuedAt, 10))

	return c.baseURL + "/attendance/" + url.PathEscape(sessionID) + "?" + query.Encode()
}

// ParseURL extracts {sessionId, signature, timestamp} from a scanned URL.
// Returns nil when the URL does not parse or any field is missing, so the
// caller can report a malformed code instead of a cryptographic failure.
func ParseURL(raw string) *Decoded {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	segments := strings.Split(u.Path, "/")
	sessionID := segments[len(segments)-1]

	signature := u.Query().Get("signature")
	timestamp, err := strconv.ParseInt(u.Query().Get("timestamp"), 10, 64)
	if sessionID == "" || signature == "" || err != nil {
		return nil
	}

	return &Decoded{
		SessionID: sessionID,
		Signature: signature,
		IssuedAt:  timestamp,
	}
}
