package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskflow/tracker/internal/core/domain"
)

const collectionPrincipals = "principals"

// CredentialRepository implements ports.CredentialStore using MongoDB.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(collectionPrincipals)}
}

type principalDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Roles        []string  `bson:"roles"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Create inserts a principal. The unique username index turns a concurrent
// duplicate into domain.ErrUsernameTaken.
func (r *CredentialRepository) Create(ctx context.Context, p *domain.Principal) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := principalDocument{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Roles:        p.Roles,
		CreatedAt:    p.CreatedAt.UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert principal: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc principalDocument
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	return &domain.Principal{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Roles:        doc.Roles,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

// EnsureIndexes creates the unique username index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
