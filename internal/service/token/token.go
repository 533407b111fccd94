package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidRefresh = errors.New("invalid refresh token")

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (t *TokenService) IssuePair(userID uint, role string) (access, refresh string, err error) {
	access, err = sign(userID, role, t.JWTSecret, AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = sign(userID, role, t.RefreshSecret, RefreshTTL)
	if err != nil {
		return "", "", err
	}
	if err := t.save(refresh, userID); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Rotate validates the refresh token against both the signature and the
// stored row, revokes the old row and issues a fresh pair.
func (t *TokenService) Rotate(rawToken string) (access, refresh string, err error) {
	claims, err := t.validateRefresh(rawToken)
	if err != nil {
		return "", "", err
	}

	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return "", "", ErrInvalidRefresh
	}
	role, _ := claims["role"].(string)
	userID := uint(subRaw)

	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error; err != nil {
		return "", "", fmt.Errorf("revoke refresh token: %w", err)
	}

	return t.IssuePair(userID, role)
}

func (t *TokenService) validateRefresh(rawToken string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(rawToken, func(j *jwt.Token) (interface{}, error) {
		if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", j.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidRefresh
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidRefresh
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		return nil, ErrInvalidRefresh
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}
	return claims, nil
}

func (t *TokenService) save(refresh string, userID uint) error {
	row := models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL),
	}
	if err := t.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// The jti claim keeps tokens unique even when two are signed within the
// same second, which the unique index on refresh_tokens.token relies on.
func sign(userID uint, role string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
