package db

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/auth"
)

// firebaseClaimWriter implements ClaimWriter over Firebase Auth custom claims.
type firebaseClaimWriter struct {
	authClient *auth.Client
}

// NewFirebaseClaimWriter creates a new instance of firebaseClaimWriter.
func NewFirebaseClaimWriter(authClient *auth.Client) ClaimWriter {
	if authClient == nil {
		log.Fatal("Firebase Auth client is not initialized for ClaimWriter.")
	}
	return &firebaseClaimWriter{authClient: authClient}
}

// SetProClaim publishes the combined entitlement on the user's ID token.
// Claims written here overwrite previous custom claims for the user.
func (w *firebaseClaimWriter) SetProClaim(ctx context.Context, userID string, isPro bool) error {
	err := w.authClient.SetCustomUserClaims(ctx, userID, map[string]interface{}{"isPro": isPro})
	if err != nil {
		return fmt.Errorf("failed to set isPro claim for user '%s': %w", userID, err)
	}
	return nil
}
