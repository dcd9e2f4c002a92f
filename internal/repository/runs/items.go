package runs

import (
	"context"
	"time"

	mg "techdebt_export/internal/config/connections/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ExportRunItemsCollection = "export_run_items"

type Item struct {
	RunID      string    `bson:"run_id" json:"run_id"`
	RecordID   int64     `bson:"record_id" json:"record_id"`
	User       string    `bson:"user" json:"user"`
	Servers    string    `bson:"servers" json:"servers"`
	Status     string    `bson:"status" json:"status"`
	PageID     string    `bson:"page_id,omitempty" json:"page_id,omitempty"`
	PageURL    string    `bson:"page_url,omitempty" json:"page_url,omitempty"`
	Errors     string    `bson:"errors" json:"errors"`
	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

func InsertItem(ctx context.Context, m *mg.Mongo, item Item) (*mongo.InsertOneResult, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	doc := bson.D{
		{Key: "run_id", Value: item.RunID},
		{Key: "record_id", Value: item.RecordID},
		{Key: "user", Value: item.User},
		{Key: "servers", Value: item.Servers},
		{Key: "status", Value: item.Status},
		{Key: "page_id", Value: item.PageID},
		{Key: "page_url", Value: item.PageURL},
		{Key: "errors", Value: item.Errors},
		{Key: "duration_ms", Value: item.DurationMS},
		{Key: "created_at", Value: item.CreatedAt},
	}

	return m.Database.Collection(ExportRunItemsCollection).InsertOne(ctx, doc, options.InsertOne())
}

func ListItems(ctx context.Context, m *mg.Mongo, runID string) ([]Item, error) {
	if m == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	cur, err := m.Database.Collection(ExportRunItemsCollection).Find(ctx,
		bson.M{"run_id": runID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]Item, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
