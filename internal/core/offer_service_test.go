package core

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func testSigningKey(t *testing.T) ([]byte, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal test key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return pemBytes, key
}

func TestNewOfferService_RejectsBadKey(t *testing.T) {
	if _, err := NewOfferService([]byte("not a pem key"), "KEY1", "ISSUER1", "com.example.app"); err == nil {
		t.Fatalf("expected an error for an unparseable key")
	}
}

func TestSignPromotionalOffer(t *testing.T) {
	pemBytes, key := testSigningKey(t)
	svc, err := NewOfferService(pemBytes, "KEY1", "ISSUER1", "com.example.app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sig, err := svc.SignPromotionalOffer("com.example.app.pro_monthly", "LAUNCH50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.KeyID != "KEY1" {
		t.Fatalf("unexpected key ID: %q", sig.KeyID)
	}
	if len(sig.Nonce) != 32 {
		t.Fatalf("expected a 16-byte hex nonce, got %q", sig.Nonce)
	}
	if sig.Timestamp <= 0 {
		t.Fatalf("expected a millisecond timestamp, got %d", sig.Timestamp)
	}

	token, err := jwt.Parse(sig.Signature, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		t.Fatalf("the signature must verify with the public key: %v", err)
	}
	if kid := token.Header["kid"]; kid != "KEY1" {
		t.Fatalf("expected kid header KEY1, got %v", kid)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["iss"] != "ISSUER1" || claims["productId"] != "com.example.app.pro_monthly" || claims["offerId"] != "LAUNCH50" {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if claims["nonce"] != sig.Nonce {
		t.Fatalf("the token nonce must match the returned nonce")
	}
}

func TestSignPromotionalOffer_FreshNoncePerCall(t *testing.T) {
	pemBytes, _ := testSigningKey(t)
	svc, err := NewOfferService(pemBytes, "KEY1", "ISSUER1", "com.example.app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := svc.SignPromotionalOffer("p", "o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.SignPromotionalOffer("p", "o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Nonce == second.Nonce {
		t.Fatalf("each signature must carry a fresh nonce")
	}
}
