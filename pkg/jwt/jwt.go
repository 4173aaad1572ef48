package jwt

import (
	"context"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenExpired is returned when a token has expired.
var ErrTokenExpired = errors.New("token is expired")

// ErrInvalidToken covers bad signatures, malformed tokens and wrong token kinds.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenRevoked is returned for refresh tokens on the revocation list.
var ErrTokenRevoked = errors.New("refresh token is revoked")

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims defines the custom JWT claims structure.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
	jwtlib.RegisteredClaims
}

// TokenManager provides methods for generating, validating, and revoking JWT tokens.
type TokenManager interface {
	// accessToken, refreshToken, error
	GenerateToken(userID uint, username string, accessTokenExp, refreshTokenExp time.Duration) (string, string, error)
	RefreshToken(ctx context.Context, refreshToken string, accessTokenExp time.Duration) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
	RevokeToken(ctx context.Context, tokenString string, expiresIn time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
}

// NewTokenManager creates a new TokenManager with the given secret key and Redis client.
func NewTokenManager(secretKey string, redisClient *redis.Client) TokenManager {
	return &tokenManager{secretKey: secretKey, redis: redisClient}
}

// NewTokenManagerWithoutRedis creates a TokenManager that only validates
// (gateway, content-service, img-service).
func NewTokenManagerWithoutRedis(secretKey string) TokenManager {
	return &tokenManager{secretKey: secretKey}
}

// tokenManager implements TokenManager with Redis for the refresh blacklist.
type tokenManager struct {
	secretKey string
	redis     *redis.Client
}

// GenerateToken creates a new access and refresh JWT token for a user.
func (j *tokenManager) GenerateToken(userID uint, username string, accessTokenExp, refreshTokenExp time.Duration) (string, string, error) {
	accessTokenStr, err := j.sign(userID, username, kindAccess, accessTokenExp)
	if err != nil {
		return "", "", err
	}
	refreshTokenStr, err := j.sign(userID, username, kindRefresh, refreshTokenExp)
	if err != nil {
		return "", "", err
	}
	return accessTokenStr, refreshTokenStr, nil
}

// RefreshToken validates the refresh token and issues a new access token only.
func (j *tokenManager) RefreshToken(ctx context.Context, refreshToken string, accessTokenExp time.Duration) (string, error) {
	claims, err := j.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return j.sign(claims.UserID, claims.Username, kindAccess, accessTokenExp)
}

// ValidateAccessToken parses and validates only the access token (no Redis blacklist check).
func (j *tokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kindAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates the refresh token and checks the Redis blacklist.
func (j *tokenManager) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	if j.redis != nil {
		isRevoked, err := j.IsTokenRevoked(ctx, tokenString)
		if err != nil {
			return nil, err
		}
		if isRevoked {
			return nil, ErrTokenRevoked
		}
	}
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kindRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RevokeToken stores only refresh tokens in the Redis blacklist until they expire.
func (j *tokenManager) RevokeToken(ctx context.Context, tokenString string, expiresIn time.Duration) error {
	if j.redis == nil {
		return errors.New("redis client not configured")
	}
	claims, err := j.ValidateRefreshToken(ctx, tokenString)
	if err != nil {
		return errors.New("invalid token for revocation")
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil // already expired
	}
	if expiresIn == 0 || expiresIn > ttl {
		expiresIn = ttl
	}
	return j.redis.Set(ctx, j.redisKey(tokenString), "revoked", expiresIn).Err()
}

// IsTokenRevoked checks if the token is blacklisted in Redis.
func (j *tokenManager) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	if j.redis == nil {
		return false, nil
	}
	res, err := j.redis.Exists(ctx, j.redisKey(tokenString)).Result()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (j *tokenManager) sign(userID uint, username, kind string, exp time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			// distinct even for tokens signed in the same second
			ID:        uuid.NewString(),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(exp)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
}

func (j *tokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// redisKey generates a Redis key for a JWT token.
func (j *tokenManager) redisKey(tokenString string) string {
	return "jwt:blacklist:" + tokenString
}
