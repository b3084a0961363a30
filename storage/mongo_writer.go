package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/utils"
)

// MongoWriter stores one document per tasker.
type MongoWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoWriter(ctx context.Context, cfg config.MongoConfig) (*MongoWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoWriter{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (w *MongoWriter) Name() string { return "mongodb" }

func (w *MongoWriter) Store(ctx context.Context, result models.RunResult) error {
	docs := taskerDocuments(result)
	if len(docs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := w.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	utils.Success("Stored %d taskers in mongodb (run %s)", len(docs), result.RunID)
	return nil
}

func (w *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.client.Disconnect(ctx)
}

// taskerDocuments maps a run to documents. Absent optional fields are
// left out rather than stored as null.
func taskerDocuments(result models.RunResult) []any {
	docs := make([]any, 0, len(result.Taskers))
	for i, t := range result.Taskers {
		doc := bson.M{
			"run_id":           result.RunID,
			"category_key":     result.CategoryKey,
			"category_name":    result.CategoryName,
			"position":         i + 1,
			"name":             t.Name,
			"two_hour_minimum": t.TwoHourMinimum,
			"elite_status":     t.EliteStatus,
			"scraped_at":       result.StartedAt,
		}
		if t.HourlyRate != nil {
			doc["hourly_rate"] = *t.HourlyRate
		}
		if t.ReviewRating != nil {
			doc["review_rating"] = *t.ReviewRating
		}
		if t.ReviewCount != nil {
			doc["review_count"] = *t.ReviewCount
		}
		if t.CategoryTaskCount != nil {
			doc["category_task_count"] = *t.CategoryTaskCount
		}
		if t.OverallTaskCount != nil {
			doc["overall_task_count"] = *t.OverallTaskCount
		}
		docs = append(docs, doc)
	}
	return docs
}
