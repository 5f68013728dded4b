package utils // package utils provides helper functions for session tokens and hashing

import (
    "errors" // sentinel errors for verification failures
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed admin session token along with its
// expiry.  The Token field contains the serialized three-segment string
// that is placed in the session cookie.  Tokens are self-contained: the
// server keeps no session state and a token stays valid until the exact
// instant encoded in its exp claim.
type SessionToken struct {
    Token string    // the serialized token string
    Exp   time.Time // the UTC expiration time
}

// adminSubject is the only subject the verifier accepts.  There is a single
// operator identity in this system.
const adminSubject = "admin"

var errInvalidSession = errors.New("invalid session token")

// NewSessionToken builds and signs an HS256 token for the admin subject.
// It takes the signing secret and a TTL and returns the signed token plus
// its expiration time.  The claims carry subject (sub), expiration (exp)
// and issued at (iat); verification ignores anything else.
func NewSessionToken(secret string, ttl time.Duration) (SessionToken, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub": adminSubject,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken recomputes the signature over the supplied token and
// checks the embedded claims.  It returns nil only when the signature
// matches (the HMAC comparison inside the library is constant time), the
// signing method is HMAC, the token has not expired, and the subject is
// "admin".  There is no refresh or rotation: a near-expiry token is
// accepted as-is until its expiry instant.
func VerifySessionToken(secret, raw string) error {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, errInvalidSession
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return errInvalidSession
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return errInvalidSession
    }
    if sub, _ := claims["sub"].(string); sub != adminSubject {
        return errInvalidSession
    }
    return nil
}
