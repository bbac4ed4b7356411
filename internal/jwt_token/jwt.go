package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
)

// Claims carries the actor a request acts as.
type Claims struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	InstitutionID   string `json:"institution_id,omitempty"`
	InstitutionKind string `json:"institution_kind,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into a domain actor. The system role cannot be
// claimed by a token.
func (c *Claims) Actor() (domain.Actor, error) {
	role := domain.Role(c.Role)
	if role == "" || role == domain.RoleSystem {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	userID, err := domain.ParseUserID(c.UserID)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	actor := domain.Actor{
		UserID:          userID,
		Name:            c.Name,
		Email:           c.Email,
		Role:            role,
		InstitutionKind: domain.InstitutionKind(c.InstitutionKind),
	}
	if c.InstitutionID != "" {
		inst, err := domain.ParseInstitutionID(c.InstitutionID)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
		}
		actor.InstitutionID = inst
	}
	return actor, nil
}

// JWTService issues and validates HS256 actor tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (s *JWTService) GenerateAccessToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:          actor.UserID.String(),
		Name:            actor.Name,
		Email:           actor.Email,
		Role:            string(actor.Role),
		InstitutionKind: string(actor.InstitutionKind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	}
	if !actor.InstitutionID.IsNil() {
		claims.InstitutionID = actor.InstitutionID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	return claims, nil
}

// ValidateActor validates tokenString and returns the actor it carries.
func (s *JWTService) ValidateActor(tokenString string) (domain.Actor, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return claims.Actor()
}
