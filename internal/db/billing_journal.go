package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
)

const (
	checkoutSessionsSubcollection = "checkout_sessions"
	portalLinksSubcollection      = "portal_links"
	commandsSubcollection         = "stripe_commands"
)

// firestoreBillingJournal implements BillingJournal. The mobile/web client
// watches these subcollection documents for the session URL or an error
// message, so every outcome must land on a document either way.
type firestoreBillingJournal struct {
	client *firestore.Client
}

// NewFirestoreBillingJournal creates a new instance of firestoreBillingJournal.
func NewFirestoreBillingJournal(client *firestore.Client) BillingJournal {
	if client == nil {
		log.Fatal("Firestore client is not initialized for BillingJournal.")
	}
	return &firestoreBillingJournal{client: client}
}

func (j *firestoreBillingJournal) record(ctx context.Context, userID, subcollection string, data map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for journal writes")
	}
	docRef := j.client.Collection(usersCollection).Doc(userID).Collection(subcollection).NewDoc()
	if _, err := docRef.Create(ctx, data); err != nil {
		return fmt.Errorf("failed to write %s journal entry for user '%s': %w", subcollection, userID, err)
	}
	return nil
}

func (j *firestoreBillingJournal) RecordCheckoutSession(ctx context.Context, userID, priceID, sessionURL, errMsg string) error {
	data := map[string]interface{}{
		"price":     priceID,
		"createdAt": firestore.ServerTimestamp,
	}
	if errMsg != "" {
		data["error"] = map[string]interface{}{"message": errMsg}
	} else {
		data["url"] = sessionURL
	}
	return j.record(ctx, userID, checkoutSessionsSubcollection, data)
}

func (j *firestoreBillingJournal) RecordPortalLink(ctx context.Context, userID, portalURL, errMsg string) error {
	data := map[string]interface{}{
		"createdAt": firestore.ServerTimestamp,
	}
	if errMsg != "" {
		data["error"] = map[string]interface{}{"message": errMsg}
	} else {
		data["url"] = portalURL
	}
	return j.record(ctx, userID, portalLinksSubcollection, data)
}

func (j *firestoreBillingJournal) RecordCommand(ctx context.Context, userID, command string) error {
	return j.record(ctx, userID, commandsSubcollection, map[string]interface{}{
		"command":   command,
		"createdAt": firestore.ServerTimestamp,
	})
}
