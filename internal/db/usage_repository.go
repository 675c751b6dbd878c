package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pegumax/student-suite-backend/internal/models"
)

const usageSubcollection = "aiUsage"

// firestoreUsageRepository implements UsageRepository over the per-user
// users/{uid}/aiUsage/{YYYY-MM} ledger documents.
type firestoreUsageRepository struct {
	client *firestore.Client
}

// NewFirestoreUsageRepository creates a new instance of firestoreUsageRepository.
func NewFirestoreUsageRepository(client *firestore.Client) UsageRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UsageRepository.")
	}
	return &firestoreUsageRepository{client: client}
}

func (r *firestoreUsageRepository) docRef(userID, monthKey string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(usageSubcollection).Doc(monthKey)
}

// Get retrieves the ledger entry for the given user and month.
func (r *firestoreUsageRepository) Get(ctx context.Context, userID, monthKey string) (*models.MonthlyUsage, error) {
	if userID == "" || monthKey == "" {
		return nil, errors.New("userID and monthKey cannot be empty for Get operation")
	}
	docSnap, err := r.docRef(userID, monthKey).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("no usage entry for user '%s' month '%s': %w", userID, monthKey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get usage for user '%s' month '%s': %w", userID, monthKey, err)
	}

	var usage models.MonthlyUsage
	if err := docSnap.DataTo(&usage); err != nil {
		return nil, fmt.Errorf("failed to decode usage data for user '%s' month '%s': %w", userID, monthKey, err)
	}
	return &usage, nil
}

// Increment records one successful generation call. All counters are advanced
// with atomic field increments so concurrent callers never lose updates, and
// the merge write creates the entry on first use in a month.
func (r *firestoreUsageRepository) Increment(ctx context.Context, userID, monthKey string, delta models.UsageDelta) error {
	if userID == "" || monthKey == "" {
		return errors.New("userID and monthKey cannot be empty for Increment operation")
	}
	_, err := r.docRef(userID, monthKey).Set(ctx, map[string]interface{}{
		"requests":     firestore.Increment(1),
		"inputTokens":  firestore.Increment(delta.InputTokens),
		"outputTokens": firestore.Increment(delta.OutputTokens),
		"cost":         firestore.Increment(delta.Cost),
		"lastUpdated":  firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to increment usage for user '%s' month '%s': %w", userID, monthKey, err)
	}
	return nil
}
