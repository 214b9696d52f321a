// internal/common/database/firestore.go
package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"adstrategy-service/internal/common/config"
)

// NewFirestore creates a Firestore client for the configured project.
// Credentials are resolved from the environment (GOOGLE_APPLICATION_CREDENTIALS
// or the metadata server).
func NewFirestore(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id must be provided")
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}
