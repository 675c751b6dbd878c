package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	globalsCollection = "globals"
	metadataDoc       = "metadata"

	// founderCutoff is the number of accounts that receive the founder badge.
	founderCutoff = 1000
)

// firestoreMetadataRepository implements MetadataRepository over the singleton
// globals/metadata document.
type firestoreMetadataRepository struct {
	client *firestore.Client
}

// NewFirestoreMetadataRepository creates a new instance of firestoreMetadataRepository.
func NewFirestoreMetadataRepository(client *firestore.Client) MetadataRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for MetadataRepository.")
	}
	return &firestoreMetadataRepository{client: client}
}

// AssignFounder reads the global user count, writes the founder flag onto the
// user, and increments the count, all inside one transaction. Firestore's
// transaction retry serializes concurrent signups so the cutoff is exact.
func (r *firestoreMetadataRepository) AssignFounder(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, errors.New("userID cannot be empty for AssignFounder operation")
	}
	metadataRef := r.client.Collection(globalsCollection).Doc(metadataDoc)
	userRef := r.client.Collection(usersCollection).Doc(userID)

	isFounder := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var userCount int64
		metaSnap, err := tx.Get(metadataRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read global metadata: %w", err)
		}
		if err == nil && metaSnap.Exists() {
			countValue, err := metaSnap.DataAt("userCount")
			if err == nil {
				if n, ok := countValue.(int64); ok {
					userCount = n
				}
			}
		}

		isFounder = userCount < founderCutoff

		if err := tx.Set(userRef, map[string]interface{}{
			"isFounder": isFounder,
		}, firestore.MergeAll); err != nil {
			return fmt.Errorf("failed to set founder flag for user '%s': %w", userID, err)
		}
		if err := tx.Set(metadataRef, map[string]interface{}{
			"userCount": userCount + 1,
		}, firestore.MergeAll); err != nil {
			return fmt.Errorf("failed to increment global user count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return isFounder, nil
}
