// Package identity verifies bearer tokens issued by the external identity
// provider.
package identity

import (
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lefinal/vrcafe-server/errors"
	"net/http"
	"strings"
	"time"
)

// MinSecretLength is the minimum length of the shared secret in bytes.
const MinSecretLength = 16

// Identity of an authenticated user.
type Identity struct {
	// UserID is the subject of the token.
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// claims is the claims type used for parsing tokens.
type claims struct {
	jwt.RegisteredClaims
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Verifier verifies HS256 tokens. It is created once at boot and passed to
// everyone who needs it.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a Verifier for the given shared secret. If issuer is not
// empty, only tokens from this issuer are accepted.
func NewVerifier(secret string, issuer string) (*Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.NewInternalError(fmt.Sprintf("identity secret must be at least %d bytes", MinSecretLength), nil)
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// invalidToken creates the error for rejected tokens.
func invalidToken(err error) error {
	return errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindInvalidToken,
		Err:     err,
		Message: "invalid token, please sign in again",
	}
}

// Verify the given token and return the Identity it was issued for.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindMissingToken,
			Message: "missing token",
		}
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, invalidToken(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Identity{}, invalidToken(fmt.Errorf("missing subject"))
	}
	return Identity{
		UserID:      parsed.Subject,
		Name:        parsed.Name,
		PhoneNumber: parsed.PhoneNumber,
	}, nil
}

// TokenFromRequest extracts the bearer token from the Authorization header. If
// allowQuery is set and the header is missing, the token query parameter is
// used. Browsers cannot set headers for websocket connections.
func TokenFromRequest(r *http.Request, allowQuery bool) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		const prefix = "bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}
