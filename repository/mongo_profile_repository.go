package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finpal-backend/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProfileCollection is the collection holding one document per profile
const ProfileCollection = "profiles"

// profileDocument stores the profile UUID as a string _id
type profileDocument struct {
	ID                 string `bson:"_id"`
	models.UserProfile `bson:",inline"`
}

// MongoProfileRepository stores each profile, including its goals and
// conversations, as a single MongoDB document
type MongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new MongoDB-backed profile repository
func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{collection: db.Collection(ProfileCollection)}
}

// EnsureIndexes creates the unique email index
func (r *MongoProfileRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating email index: %w", err)
	}
	return nil
}

// Create inserts a new profile document
func (r *MongoProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	now := time.Now().UTC()
	profile.ID = uuid.New()
	profile.CreatedAt = now
	profile.LastLogin = now
	if profile.Goals == nil {
		profile.Goals = models.Goals{}
	}
	if profile.Conversations == nil {
		profile.Conversations = models.ConversationTurns{}
	}

	_, err := r.collection.InsertOne(ctx, profileDocument{ID: profile.ID.String(), UserProfile: *profile})
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("error creating profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *MongoProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByEmail retrieves a profile by email
func (r *MongoProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoProfileRepository) findOne(ctx context.Context, filter bson.M) (*models.UserProfile, error) {
	var doc profileDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching profile: %w", err)
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid profile id %q: %w", doc.ID, err)
	}
	profile := doc.UserProfile
	profile.ID = id
	return &profile, nil
}

// UpdateFinancials updates the financial fields of a profile
func (r *MongoProfileRepository) UpdateFinancials(ctx context.Context, profile *models.UserProfile) error {
	return r.set(ctx, profile.ID, bson.M{
		"name":             profile.Name,
		"monthly_income":   profile.MonthlyIncome,
		"monthly_expenses": profile.MonthlyExpenses,
		"current_savings":  profile.CurrentSavings,
		"preferences":      profile.Preferences,
	})
}

// UpdateGoals replaces the goals of a profile
func (r *MongoProfileRepository) UpdateGoals(ctx context.Context, id uuid.UUID, goals models.Goals) error {
	if goals == nil {
		goals = models.Goals{}
	}
	return r.set(ctx, id, bson.M{"goals": goals})
}

// UpdateConversations replaces the conversation history of a profile
func (r *MongoProfileRepository) UpdateConversations(ctx context.Context, id uuid.UUID, turns models.ConversationTurns) error {
	if turns == nil {
		turns = models.ConversationTurns{}
	}
	return r.set(ctx, id, bson.M{"conversations": turns})
}

// TouchLastLogin sets last_login to now
func (r *MongoProfileRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return r.set(ctx, id, bson.M{"last_login": time.Now().UTC()})
}

func (r *MongoProfileRepository) set(ctx context.Context, id uuid.UUID, updates bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}
