package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

// AuditCollection holds one document per authentication event.
const AuditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureIndexes creates the indexes the audit trail is queried by: one
// account's history and one event type over time. Safe to call on every start.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(AuditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_uuid", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("user_uuid_at"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("type_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// InsertEvent appends an event to the audit collection. Empty optional fields
// are omitted from the document.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	doc := bson.M{
		"type":        string(event.Type),
		"success":     event.Success,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	optional := map[string]string{
		"user_uuid":    event.UserUUID,
		"session_uuid": event.SessionUUID,
		"email":        event.Email,
		"ip_address":   event.IPAddress,
		"user_agent":   event.UserAgent,
		"reason":       event.Reason,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}

	_, err := r.db.Collection(AuditCollection).InsertOne(ctx, doc)
	return err
}
