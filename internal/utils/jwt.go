package utils // package utils provides helper functions for token creation

import (
    "errors"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// ErrEmptySubject is returned when a token is requested without a subject.
var ErrEmptySubject = errors.New("token subject is required")

// NewAccessToken builds and signs an HS256 JWT.  subject identifies the
// operator (a RUT or a service name) and role is one of ADMIN, OPERATOR or
// VIEWER.  The JWT includes the standard claims sub, exp and iat plus role.
func NewAccessToken(secret, subject, role string, ttlMin int) (AccessToken, error) {
    subject = strings.TrimSpace(subject)
    if subject == "" {
        return AccessToken{}, ErrEmptySubject
    }
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  subject,
        "role": strings.ToUpper(role),
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}
