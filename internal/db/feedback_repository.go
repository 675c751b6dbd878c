package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"github.com/pegumax/student-suite-backend/internal/models"
)

const feedbackCollection = "feedback"

// firestoreFeedbackRepository implements the FeedbackRepository interface using Firestore.
type firestoreFeedbackRepository struct {
	client *firestore.Client
}

// NewFirestoreFeedbackRepository creates a new instance of firestoreFeedbackRepository.
func NewFirestoreFeedbackRepository(client *firestore.Client) FeedbackRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for FeedbackRepository.")
	}
	return &firestoreFeedbackRepository{client: client}
}

// Create stores a feedback submission with an auto-generated ID.
func (r *firestoreFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) (string, error) {
	docRef := r.client.Collection(feedbackCollection).NewDoc()
	feedback.ID = docRef.ID

	if _, err := docRef.Create(ctx, feedback); err != nil {
		return "", fmt.Errorf("failed to create feedback entry: %w", err)
	}
	return docRef.ID, nil
}
