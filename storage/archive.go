package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finpal-backend/models"

	"github.com/google/uuid"
)

// ConversationArchive writes conversation turns evicted by the retention cap
// to blob storage, one JSON object per eviction
type ConversationArchive struct {
	storage Storage
	now     func() time.Time
}

// NewConversationArchive creates an archive on top of a storage backend
func NewConversationArchive(s Storage) *ConversationArchive {
	return &ConversationArchive{storage: s, now: time.Now}
}

type archivedTurns struct {
	UserID     string                   `json:"userId"`
	ArchivedAt time.Time                `json:"archivedAt"`
	Turns      models.ConversationTurns `json:"turns"`
}

// Archive stores turns under conversations/<user>/<timestamp>-<n>.json and returns the path
func (a *ConversationArchive) Archive(ctx context.Context, userID uuid.UUID, turns models.ConversationTurns) (string, error) {
	if a.storage == nil {
		return "", errors.New("archive storage not set")
	}
	if len(turns) == 0 {
		return "", nil
	}

	at := a.now().UTC()
	payload, err := json.Marshal(archivedTurns{
		UserID:     userID.String(),
		ArchivedAt: at,
		Turns:      turns,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal turns: %w", err)
	}

	key := fmt.Sprintf("conversations/%s/%s-%d.json", userID, at.Format("20060102T150405.000000000"), len(turns))
	return a.storage.Upload(ctx, key, "application/json", bytes.NewReader(payload))
}

// Discard removes an archive written by Archive
func (a *ConversationArchive) Discard(ctx context.Context, location string) error {
	if a.storage == nil {
		return errors.New("archive storage not set")
	}
	if location == "" {
		return nil
	}
	return a.storage.Delete(ctx, location)
}
