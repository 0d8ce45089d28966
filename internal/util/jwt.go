package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields we read from the identity provider's access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseECDSAPublicKey parses a PEM-encoded ECDSA public key
func ParseECDSAPublicKey(pemKey string) (*ecdsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return ecdsaPub, nil
}

// ParseRSAPublicKey parses a PEM-encoded RSA public key
func ParseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return rsaPub, nil
}

func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// KeyFunc builds a jwt.Keyfunc for the configured key material. HMAC tokens
// use the material as a shared secret; RSA and ECDSA tokens expect a PEM
// public key. The algorithm family is taken from the token header and checked
// against the parsed key, so a PEM key can never be used as an HMAC secret.
func KeyFunc(keyMaterial string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if block, _ := pem.Decode([]byte(keyMaterial)); block != nil {
				return nil, errors.New("HMAC token presented but key material is a public key")
			}
			return []byte(keyMaterial), nil
		case *jwt.SigningMethodRSA:
			key, err := ParseRSAPublicKey(keyMaterial)
			if err != nil {
				return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
			}
			return key, nil
		case *jwt.SigningMethodECDSA:
			key, err := ParseECDSAPublicKey(keyMaterial)
			if err != nil {
				return nil, fmt.Errorf("failed to parse ECDSA public key: %w", err)
			}
			return key, nil
		default:
			return nil, fmt.Errorf("unsupported signing algorithm: %v", token.Header["alg"])
		}
	}
}

// ValidateJWT parses and verifies a token, returning its claims.
func ValidateJWT(tokenString string, keyMaterial string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, KeyFunc(keyMaterial),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
