package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel errors for token validation
    "fmt"    // fmt wraps parse failures
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // jti generation
)

// TokenType discriminates access from refresh tokens.  It is carried in the
// "type" claim so one kind can never be used as the other.
type TokenType string

const (
    TokenAccess  TokenType = "access"
    TokenRefresh TokenType = "refresh"
)

var (
    ErrInvalidToken   = errors.New("invalid token")
    ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the payload of every token we issue: sub (username), role,
// jti, iat, exp, iss and the type discriminator.
type Claims struct {
    Role string    `json:"role"`
    Type TokenType `json:"type"`
    jwt.RegisteredClaims
}

// IssuedToken is a signed token with the identifiers the caller persists.
type IssuedToken struct {
    Token string    // the serialized JWT string
    JTI   string    // unique token id
    Exp   time.Time // the UTC expiration time
}

// Signer mints and verifies HMAC tokens for one secret, algorithm and
// issuer.
type Signer struct {
    secret []byte
    method jwt.SigningMethod
    issuer string

    // Now is the clock used for iat/exp and validation.  Tests replace it.
    Now func() time.Time
}

// NewSigner accepts HS256, HS384 or HS512.
func NewSigner(secret, algorithm, issuer string) (*Signer, error) {
    if secret == "" {
        return nil, errors.New("jwt secret is empty")
    }
    var m jwt.SigningMethod
    switch algorithm {
    case "HS256":
        m = jwt.SigningMethodHS256
    case "HS384":
        m = jwt.SigningMethodHS384
    case "HS512":
        m = jwt.SigningMethodHS512
    default:
        return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
    }
    return &Signer{secret: []byte(secret), method: m, issuer: issuer, Now: time.Now}, nil
}

// Mint signs a token of the given type for subject, valid for ttl.
func (s *Signer) Mint(subject, role string, typ TokenType, ttl time.Duration) (IssuedToken, error) {
    iat := s.Now().UTC()
    exp := iat.Add(ttl)
    jti := uuid.NewString()
    claims := Claims{
        Role: role,
        Type: typ,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   subject,
            Issuer:    s.issuer,
            ID:        jti,
            IssuedAt:  jwt.NewNumericDate(iat),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
    if err != nil {
        return IssuedToken{}, err
    }
    // exp is serialized at second precision; report what the token says
    return IssuedToken{Token: signed, JTI: jti, Exp: claims.ExpiresAt.Time.UTC()}, nil
}

// Parse verifies signature, algorithm, issuer and expiry, then requires the
// token to be of type want and to carry a subject and jti.
func (s *Signer) Parse(raw string, want TokenType) (*Claims, error) {
    claims := &Claims{}
    _, err := jwt.ParseWithClaims(raw, claims,
        func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
        jwt.WithValidMethods([]string{s.method.Alg()}),
        jwt.WithIssuer(s.issuer),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(s.Now),
    )
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    if claims.Type != want {
        return nil, ErrWrongTokenType
    }
    if claims.Subject == "" || claims.ID == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
