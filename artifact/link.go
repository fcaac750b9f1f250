package artifact

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/soderasen-au/go-common/util"
)

const (
	LINK_ISSUER      = "sheetmerge"
	LINK_AUDIENCE    = "sheetmerge/artifacts"
	DEFAULT_LINK_TTL = 60 * time.Minute
)

func init() {
	// single audience is encoded as a plain string
	jwt.MarshalSingleStringAsArray = false
}

// LinkClaim grants read access to one stored artifact.
type LinkClaim struct {
	File string `json:"file" yaml:"file"`
	jwt.RegisteredClaims
}

func NewLinkClaim(file string, ttl time.Duration, now time.Time) *LinkClaim {
	if ttl <= 0 {
		ttl = DEFAULT_LINK_TTL
	}
	return &LinkClaim{
		File: file,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    LINK_ISSUER,
			Audience:  jwt.ClaimStrings{LINK_AUDIENCE},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
}

// Signer issues and checks HS256 download tokens.
type Signer struct {
	Key []byte
	TTL time.Duration
	Now func() time.Time
}

func NewSigner(key string, ttl time.Duration) (*Signer, *util.Result) {
	if key == "" {
		return nil, util.MsgError("NewSigner", "signing key is required")
	}
	return &Signer{Key: []byte(key), TTL: ttl, Now: time.Now}, nil
}

func (s *Signer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Signer) Sign(file string) (string, *util.Result) {
	if res := ValidateKey(file); res != nil {
		return "", res.With("Sign")
	}
	claim := NewLinkClaim(file, s.TTL, s.now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	tokenString, err := token.SignedString(s.Key)
	if err != nil {
		return "", util.Error("SignedString", err)
	}
	return tokenString, nil
}

// Verify returns the claim of a valid token; expired, tampered or foreign
// tokens are rejected.
func (s *Signer) Verify(tokenString string) (*LinkClaim, *util.Result) {
	claim := LinkClaim{}
	_, err := jwt.ParseWithClaims(tokenString, &claim, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Key, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(LINK_ISSUER),
		jwt.WithAudience(LINK_AUDIENCE),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, util.Error("ParseWithClaims", err)
	}
	if res := ValidateKey(claim.File); res != nil {
		return nil, res.With("Verify")
	}
	return &claim, nil
}
