package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the caller and the organization and outlets it may read.
// An empty OutletIDs means every outlet of the organization.
type Claims struct {
	UserID         string
	OrganizationID string
	OutletIDs      []string
	Role           string
}

func GenerateToken(secret []byte, c Claims, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty jwt secret")
	}
	if c.UserID == "" {
		return "", errors.New("empty userID passed to GenerateToken")
	}
	if c.OrganizationID == "" {
		return "", errors.New("empty organizationID passed to GenerateToken")
	}

	outlets := c.OutletIDs
	if outlets == nil {
		outlets = []string{}
	}

	claims := jwt.MapClaims{
		"userID":    c.UserID,
		"orgID":     c.OrganizationID,
		"outletIDs": outlets,
		"role":      c.Role,
		"exp":       time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty jwt secret")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	out := &Claims{}
	out.UserID, _ = claims["userID"].(string)
	out.OrganizationID, _ = claims["orgID"].(string)
	out.Role, _ = claims["role"].(string)

	// JSON arrays decode as []interface{}
	if raw, ok := claims["outletIDs"].([]interface{}); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok && id != "" {
				out.OutletIDs = append(out.OutletIDs, id)
			}
		}
	}

	if out.UserID == "" || out.OrganizationID == "" {
		return nil, ErrInvalidToken
	}
	return out, nil
}
