package models

import "time"

// Feedback is a single feedback submission stored in the 'feedback' collection.
// Each stored entry is forwarded by email to the operator address.
type Feedback struct {
	ID          string    `json:"id" firestore:"-"`
	Category    string    `json:"category" firestore:"category"`
	DisplayName string    `json:"displayName" firestore:"displayName"`
	Email       string    `json:"email" firestore:"email"`
	UserID      string    `json:"userId" firestore:"userId"`
	Platform    string    `json:"platform" firestore:"platform"`
	Version     string    `json:"version" firestore:"version"`
	Message     string    `json:"message" firestore:"message"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// Metadata is the singleton globals/metadata document. UserCount increases by
// exactly one per account creation and drives the founder cutoff.
type Metadata struct {
	UserCount int64 `json:"userCount" firestore:"userCount"`
}
