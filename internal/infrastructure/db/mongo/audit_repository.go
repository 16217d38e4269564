package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository on MongoDB.
type AuditRepository struct {
	coll      *mongo.Collection
	retention time.Duration
}

// NewAuditRepository returns a repository writing to the auth_events
// collection. A positive retention makes EnsureIndexes add a TTL index.
func NewAuditRepository(db *mongo.Database, retention time.Duration) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection), retention: retention}
}

type auditDoc struct {
	ID          string    `bson:"_id"`
	Kind        string    `bson:"kind"`
	Role        string    `bson:"role"`
	PrincipalID string    `bson:"principal_id,omitempty"`
	Path        string    `bson:"path,omitempty"`
	Reason      string    `bson:"reason,omitempty"`
	At          time.Time `bson:"at"`
}

// Insert persists one event. Re-inserting the same event id is a no-op.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := auditDoc{
		ID:          event.ID,
		Kind:        string(event.Kind),
		Role:        event.Role,
		PrincipalID: event.PrincipalID,
		Path:        event.Path,
		Reason:      event.Reason,
		At:          event.At.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes and, with a retention set, the
// TTL index that expires old events.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "principal_id", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	}
	if r.retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention.Seconds())),
		})
	} else {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: "at", Value: 1}}})
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
