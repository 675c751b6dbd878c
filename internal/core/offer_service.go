package core

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// offerService implements the OfferService interface using an App Store
// Connect subscription key.
type offerService struct {
	privateKey *ecdsa.PrivateKey
	keyID      string
	issuerID   string
	bundleID   string
	now        func() time.Time
}

// NewOfferService creates a new OfferService instance from a PEM-encoded
// EC private key downloaded from App Store Connect.
func NewOfferService(privateKeyPEM []byte, keyID, issuerID, bundleID string) (OfferService, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse offer signing key: %w", err)
	}
	return &offerService{
		privateKey: key,
		keyID:      keyID,
		issuerID:   issuerID,
		bundleID:   bundleID,
		now:        time.Now,
	}, nil
}

// SignPromotionalOffer produces an ES256 signature over the offer parameters
// with a fresh nonce and millisecond timestamp, as the App Store requires.
func (s *offerService) SignPromotionalOffer(productID, offerID string) (*OfferSignature, error) {
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate offer nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)
	timestamp := s.now().UnixMilli()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss":       s.issuerID,
		"iat":       timestamp / 1000,
		"bid":       s.bundleID,
		"productId": productID,
		"offerId":   offerID,
		"nonce":     nonce,
		"timestamp": timestamp,
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign promotional offer: %w", err)
	}
	return &OfferSignature{
		Signature: signed,
		Nonce:     nonce,
		Timestamp: timestamp,
		KeyID:     s.keyID,
	}, nil
}
