package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

func TestNewVerifierShortSecret(t *testing.T) {
	_, err := NewVerifier("short", "")
	assert.Error(t, err)
}

// verifierSuite tests Verifier.
type verifierSuite struct {
	suite.Suite
	verifier *Verifier
	now      time.Time
}

func (suite *verifierSuite) SetupTest() {
	var err error
	suite.verifier, err = NewVerifier(testSecret, "vrcafe-auth")
	suite.Require().NoError(err)
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.verifier.now = func() time.Time { return suite.now }
}

// sign creates a token with the given claims.
func (suite *verifierSuite) sign(method jwt.SigningMethod, secret string, c claims) string {
	token, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
	suite.Require().NoError(err)
	return token
}

// validClaims returns claims that are accepted by the verifier.
func (suite *verifierSuite) validClaims() claims {
	return claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "k3J9xQ2mPz",
			Issuer:    "vrcafe-auth",
			ExpiresAt: jwt.NewNumericDate(suite.now.Add(time.Hour)),
		},
		Name:        "Ana",
		PhoneNumber: "+91 98765 43210",
	}
}

func (suite *verifierSuite) TestOK() {
	token := suite.sign(jwt.SigningMethodHS256, testSecret, suite.validClaims())
	identity, err := suite.verifier.Verify(token)
	suite.Require().NoError(err)
	suite.Equal(Identity{
		UserID:      "k3J9xQ2mPz",
		Name:        "Ana",
		PhoneNumber: "+91 98765 43210",
	}, identity)
}

func (suite *verifierSuite) TestMissing() {
	_, err := suite.verifier.Verify(" ")
	suite.Require().Error(err)
	suite.True(errors.HasKind(err, errors.KindMissingToken))
}

func (suite *verifierSuite) TestInvalid() {
	expired := suite.validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(suite.now.Add(-time.Minute))
	noExpiry := suite.validClaims()
	noExpiry.ExpiresAt = nil
	otherIssuer := suite.validClaims()
	otherIssuer.Issuer = "somebody"
	noSubject := suite.validClaims()
	noSubject.Subject = ""
	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: suite.sign(jwt.SigningMethodHS256, "fedcba9876543210fedc", suite.validClaims())},
		{name: "wrong method", token: suite.sign(jwt.SigningMethodHS512, testSecret, suite.validClaims())},
		{name: "expired", token: suite.sign(jwt.SigningMethodHS256, testSecret, expired)},
		{name: "no expiry", token: suite.sign(jwt.SigningMethodHS256, testSecret, noExpiry)},
		{name: "other issuer", token: suite.sign(jwt.SigningMethodHS256, testSecret, otherIssuer)},
		{name: "no subject", token: suite.sign(jwt.SigningMethodHS256, testSecret, noSubject)},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.verifier.Verify(tt.token)
			suite.Require().Error(err)
			suite.True(errors.HasKind(err, errors.KindInvalidToken))
			suite.True(errors.BlameUser(err))
		})
	}
}

func TestVerifier(t *testing.T) {
	suite.Run(t, new(verifierSuite))
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		target     string
		allowQuery bool
		expect     string
	}{
		{name: "bearer", header: "Bearer abc", target: "/", expect: "abc"},
		{name: "lowercase bearer", header: "bearer abc", target: "/", expect: "abc"},
		{name: "other scheme", header: "Basic abc", target: "/", expect: ""},
		{name: "query not allowed", target: "/ws?token=abc", expect: ""},
		{name: "query", target: "/ws?token=abc", allowQuery: true, expect: "abc"},
		{name: "header precedence", header: "Bearer abc", target: "/ws?token=def", allowQuery: true, expect: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			require.Equal(t, tt.expect, TokenFromRequest(r, tt.allowQuery))
		})
	}
}
