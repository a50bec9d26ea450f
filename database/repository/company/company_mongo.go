package companyRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"senadirectory/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoDirectoryRepo implements DirectoryRepository using MongoDB.
type MongoDirectoryRepo struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoDirectoryRepo uses the "companies" collection of db.
func NewMongoDirectoryRepo(db *mongo.Database, logger *zap.Logger) DirectoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &MongoDirectoryRepo{coll: db.Collection("companies"), logger: logger}

	if err := repo.ensureIndexes(context.Background()); err != nil {
		logger.Error("companyRepo: index creation failed", zap.Error(err))
	}
	return repo
}

func (r *MongoDirectoryRepo) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, BuildSearchFilter(criteria), BuildSearchOptions(criteria))
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer cursor.Close(ctx)

	companies := []models.Company{}
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("failed to decode companies: %w", err)
	}
	return companies, nil
}

func (r *MongoDirectoryRepo) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, fmt.Errorf("failed to check slug %s: %w", slug, err)
	}
	return n == 0, nil
}

func (r *MongoDirectoryRepo) Create(ctx context.Context, company *models.Company) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, company); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrSlugTaken, company.Slug)
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *MongoDirectoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var company models.Company
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&company); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch company %s: %w", slug, err)
	}
	return &company, nil
}

func (r *MongoDirectoryRepo) IncrementPopularity(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$inc": bson.M{"popularity": 1}})
	if err != nil {
		return fmt.Errorf("failed to update popularity for %s: %w", slug, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
