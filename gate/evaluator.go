package gate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var accessTokenMarker = []byte("access_token")

// EvaluateBody decides an exchange outcome from the response body alone.
// It returns nil when the body is non-empty and contains "access_token",
// and ErrInvalidCredentials otherwise. No token value is extracted.
func EvaluateBody(body []byte) error {
	if len(body) == 0 || !bytes.Contains(body, accessTokenMarker) {
		return ErrInvalidCredentials
	}
	return nil
}

// Evaluator turns an exchange response into a verdict: nil to authorize,
// an error wrapping ErrInvalidCredentials to deny.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must never authorize a nil response.
type Evaluator interface {
	Evaluate(resp *ExchangeResponse) error
}

// SubstringEvaluator applies EvaluateBody and ignores the status code.
type SubstringEvaluator struct{}

// Evaluate implements Evaluator.
func (SubstringEvaluator) Evaluate(resp *ExchangeResponse) error {
	if resp == nil {
		return ErrInvalidCredentials
	}
	return EvaluateBody(resp.Body)
}

// StrictEvaluator requires a 2xx status and a JSON token object with a
// non-empty access_token. A non-positive expires_in is rejected, and when the
// access token is a JWT its exp claim must lie in the future.
//
// The JWT signature is not verified: the token was just issued to this gate
// over the exchange call and is never forwarded.
type StrictEvaluator struct {
	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// Leeway tolerates clock skew when checking exp.
	Leeway time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   *int64 `json:"expires_in"`
}

// Evaluate implements Evaluator.
func (e StrictEvaluator) Evaluate(resp *ExchangeResponse) error {
	if resp == nil {
		return ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrInvalidCredentials, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body, &tok); err != nil {
		return fmt.Errorf("%w: decode token response: %v", ErrInvalidCredentials, err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: no access_token", ErrInvalidCredentials)
	}
	if tok.ExpiresIn != nil && *tok.ExpiresIn <= 0 {
		return fmt.Errorf("%w: token already expired", ErrInvalidCredentials)
	}

	if strings.Count(tok.AccessToken, ".") == 2 {
		return e.checkJWT(tok.AccessToken)
	}
	return nil
}

func (e StrictEvaluator) checkJWT(raw string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("%w: malformed access token: %v", ErrInvalidCredentials, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: bad exp claim: %v", ErrInvalidCredentials, err)
	}
	if exp == nil {
		return nil
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if !now().Before(exp.Add(e.Leeway)) {
		return fmt.Errorf("%w: access token expired at %s", ErrInvalidCredentials, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// NewEvaluator returns the evaluator for a response mode.
func NewEvaluator(mode string) (Evaluator, error) {
	switch mode {
	case "", ResponseModeSubstring:
		return SubstringEvaluator{}, nil
	case ResponseModeStrict:
		return StrictEvaluator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidResponseMode, mode)
	}
}

var (
	_ Evaluator = SubstringEvaluator{}
	_ Evaluator = StrictEvaluator{}
)
