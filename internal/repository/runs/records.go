package runs

import (
	"context"
	"fmt"
	"time"

	mg "techdebt_export/internal/config/connections/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ExportRunsCollection = "export_runs"

type Record struct {
	ID         string     `bson:"_id" json:"id"`
	Table      string     `bson:"table" json:"table"`
	Status     string     `bson:"status" json:"status"`
	DryRun     bool       `bson:"dry_run" json:"dry_run"`
	Fetched    int        `bson:"fetched" json:"fetched"`
	Published  int        `bson:"published" json:"published"`
	Failed     int        `bson:"failed" json:"failed"`
	Marked     int64      `bson:"marked" json:"marked"`
	Errors     *string    `bson:"errors,omitempty" json:"errors,omitempty"`
	ReportKey  *string    `bson:"report_key,omitempty" json:"report_key,omitempty"`
	StartedAt  time.Time  `bson:"started_at" json:"started_at"`
	FinishedAt *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

func InsertRun(ctx context.Context, m *mg.Mongo, rec Record) error {
	if m == nil || m.Client == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if rec.ID == "" {
		return fmt.Errorf("empty run id")
	}

	now := time.Now().UTC()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	rec.UpdatedAt = now

	_, err := m.Database.Collection(ExportRunsCollection).InsertOne(ctx, rec, options.InsertOne())
	return err
}

// FinishRun overwrites the counters and final status of a run.
func FinishRun(ctx context.Context, m *mg.Mongo, rec Record) error {
	if m == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}

	now := time.Now().UTC()
	finished := now
	if rec.FinishedAt != nil {
		finished = *rec.FinishedAt
	}

	update := bson.M{
		"$set": bson.M{
			"status":      rec.Status,
			"fetched":     rec.Fetched,
			"published":   rec.Published,
			"failed":      rec.Failed,
			"marked":      rec.Marked,
			"errors":      rec.Errors,
			"report_key":  rec.ReportKey,
			"finished_at": finished,
			"updated_at":  now,
		},
	}

	res, err := m.Database.Collection(ExportRunsCollection).UpdateOne(ctx, bson.M{"_id": rec.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no export_run found with id %s", rec.ID)
	}
	return nil
}

func ListRuns(ctx context.Context, m *mg.Mongo, filter bson.M, limit, skip int64) ([]Record, int64, error) {
	if m == nil || m.Database == nil {
		return nil, 0, mongo.ErrClientDisconnected
	}
	coll := m.Database.Collection(ExportRunsCollection)
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	recs, err := decodeRuns(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// decodeRuns drains the cursor. A document that does not fit Record fails the
// whole listing instead of being dropped from it.
func decodeRuns(ctx context.Context, cur *mongo.Cursor) ([]Record, error) {
	recs := make([]Record, 0)
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode export_run: %w", err)
		}
		recs = append(recs, r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
