package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pegumax/student-suite-backend/internal/models"
)

const usersCollection = "users"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

func (r *firestoreUserRepository) docRef(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

// Create adds a new user document to Firestore.
// The user.ID (Firebase Auth UID) is used as the Firestore document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.docRef(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, err)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document from Firestore by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.docRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// Update modifies an existing user document with a merge write.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	_, err := r.docRef(user.ID).Set(ctx, user, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

func (r *firestoreUserRepository) SetStripeRole(ctx context.Context, userID, role string) error {
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "stripeRole", Value: role},
	})
	if err != nil {
		return fmt.Errorf("failed to set stripe role for user '%s': %w", userID, err)
	}
	return nil
}

func (r *firestoreUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "stripeCustomerId", Value: customerID},
	})
	if err != nil {
		return fmt.Errorf("failed to set stripe customer ID for user '%s': %w", userID, err)
	}
	return nil
}

func (r *firestoreUserRepository) SetStripeSubscription(ctx context.Context, userID, subscriptionID string) error {
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "stripeSubscriptionId", Value: subscriptionID},
	})
	if err != nil {
		return fmt.Errorf("failed to set stripe subscription for user '%s': %w", userID, err)
	}
	return nil
}

// SetIAPSubscription stores a verified, currently-active IAP subscription.
func (r *firestoreUserRepository) SetIAPSubscription(ctx context.Context, userID, subscriptionID string, expiry time.Time) error {
	_, err := r.docRef(userID).Set(ctx, map[string]interface{}{
		"iapRole":           models.RolePro,
		"iapSubscriptionId": subscriptionID,
		"iapExpiryDate":     expiry,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to set IAP subscription for user '%s': %w", userID, err)
	}
	return nil
}

// ClearIAPSubscription downgrades the IAP role after an expired receipt.
func (r *firestoreUserRepository) ClearIAPSubscription(ctx context.Context, userID string) error {
	_, err := r.docRef(userID).Set(ctx, map[string]interface{}{
		"iapRole": models.RoleFree,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to clear IAP subscription for user '%s': %w", userID, err)
	}
	return nil
}

// GetByStripeCustomerID finds the single user whose stripeCustomerId matches.
func (r *firestoreUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty for GetByStripeCustomerID operation")
	}
	return r.queryOne(ctx, "stripeCustomerId", customerID)
}

// FindByReferralPrefix finds the user owning a referral code prefix.
func (r *firestoreUserRepository) FindByReferralPrefix(ctx context.Context, prefix string) (*models.User, error) {
	if prefix == "" {
		return nil, errors.New("prefix cannot be empty for FindByReferralPrefix operation")
	}
	return r.queryOne(ctx, "uid_prefix", prefix)
}

func (r *firestoreUserRepository) queryOne(ctx context.Context, field, value string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no user with %s '%s': %w", field, value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query users by %s: %w", field, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data (ID: %s): %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

// RedeemReferral credits a referral inside a single transaction. Re-invocations
// for an already-credited subscriber are a no-op; concurrent attempts race on
// the transaction and Firestore's retry serializes them to one winner.
func (r *firestoreUserRepository) RedeemReferral(ctx context.Context, referrerID, subscriberID string) (bool, error) {
	referrerRef := r.docRef(referrerID)
	subscriberRef := r.docRef(subscriberID)

	applied := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		referrerSnap, err := tx.Get(referrerRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("referrer '%s' not found: %w", referrerID, ErrNotFound)
			}
			return fmt.Errorf("failed to read referrer '%s': %w", referrerID, err)
		}
		if !referrerSnap.Exists() {
			return fmt.Errorf("referrer '%s' not found: %w", referrerID, ErrNotFound)
		}

		subscriberSnap, err := tx.Get(subscriberRef)
		if err != nil {
			return fmt.Errorf("failed to read subscriber '%s': %w", subscriberID, err)
		}

		var subscriber models.User
		if err := subscriberSnap.DataTo(&subscriber); err != nil {
			return fmt.Errorf("failed to decode subscriber '%s': %w", subscriberID, err)
		}
		if subscriber.ReferralCreditGiven {
			// Already processed for this subscriber.
			return nil
		}

		if err := tx.Update(referrerRef, []firestore.Update{
			{Path: "referralCount", Value: firestore.Increment(1)},
			{Path: "lastReferralDate", Value: firestore.ServerTimestamp},
		}); err != nil {
			return fmt.Errorf("failed to update referrer '%s': %w", referrerID, err)
		}
		if err := tx.Update(subscriberRef, []firestore.Update{
			{Path: "referredBy", Value: referrerID},
			{Path: "referralCreditGiven", Value: true},
		}); err != nil {
			return fmt.Errorf("failed to update subscriber '%s': %w", subscriberID, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *firestoreUserRepository) MarkReferralCredited(ctx context.Context, userID string) error {
	_, err := r.docRef(userID).Update(ctx, []firestore.Update{
		{Path: "referralCreditGiven", Value: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark referral credited for user '%s': %w", userID, err)
	}
	return nil
}

// ListIDs returns every user document ID. Used by the monthly report scan.
func (r *firestoreUserRepository) ListIDs(ctx context.Context) ([]string, error) {
	iter := r.client.Collection(usersCollection).DocumentRefs(ctx)
	var ids []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list user IDs: %w", err)
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// RecursiveDelete removes the user document and all documents in its
// subcollections using a BulkWriter, the SDK's equivalent of the Admin
// recursive delete.
func (r *firestoreUserRepository) RecursiveDelete(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for RecursiveDelete operation")
	}
	userRef := r.docRef(userID)

	bw := r.client.BulkWriter(ctx)

	colIter := userRef.Collections(ctx)
	for {
		col, err := colIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to enumerate subcollections for user '%s': %w", userID, err)
		}

		docIter := col.DocumentRefs(ctx)
		for {
			docRef, err := docIter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to enumerate documents in '%s' for user '%s': %w", col.ID, userID, err)
			}
			if _, err := bw.Delete(docRef); err != nil {
				return fmt.Errorf("failed to queue delete of '%s/%s': %w", col.ID, docRef.ID, err)
			}
		}
	}

	if _, err := bw.Delete(userRef); err != nil {
		return fmt.Errorf("failed to queue delete of user '%s': %w", userID, err)
	}
	bw.End()
	return nil
}
