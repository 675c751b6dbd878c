package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	cloudstorage "cloud.google.com/go/storage"
)

const profileImagePrefix = "profile_pics/"

// ErrImageNotFound is returned when a user has no stored profile image.
// Callers treat it as a normal outcome during account cleanup.
var ErrImageNotFound = errors.New("profile image not found")

// bucketProfileImageStore implements ProfileImageStore over the default
// Cloud Storage bucket.
type bucketProfileImageStore struct {
	bucket *cloudstorage.BucketHandle
}

// NewBucketProfileImageStore creates a new instance of bucketProfileImageStore.
func NewBucketProfileImageStore(bucket *cloudstorage.BucketHandle) ProfileImageStore {
	if bucket == nil {
		log.Fatal("Cloud Storage bucket is not initialized for ProfileImageStore.")
	}
	return &bucketProfileImageStore{bucket: bucket}
}

// Delete removes the profile image object for a user.
func (s *bucketProfileImageStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Delete operation")
	}
	err := s.bucket.Object(profileImagePrefix + userID).Delete(ctx)
	if err != nil {
		if errors.Is(err, cloudstorage.ErrObjectNotExist) {
			return fmt.Errorf("no profile image for user '%s': %w", userID, ErrImageNotFound)
		}
		return fmt.Errorf("failed to delete profile image for user '%s': %w", userID, err)
	}
	return nil
}
