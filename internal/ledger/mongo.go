package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collServiceRequests = "service_requests"
	collMilestones      = "milestones"
	collProcessedEvents = "processed_events"
)

// MongoStore is the document-store implementation of Store. Counter writes
// are single conditional updates so concurrent webhook deliveries for the
// same job cannot lose updates.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	store := &MongoStore{client: client, db: client.Database(database)}

	indexes := store.db.Collection(collMilestones).Indexes()
	_, err = indexes.CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "due_date", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("milestone index error: %w", err)
	}

	return store, nil
}

func (s *MongoStore) CreateServiceRequest(ctx context.Context, req *ServiceRequest) error {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = StatusInProgress
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := s.db.Collection(collServiceRequests).InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("insert service request: %w", err)
	}
	return nil
}

func (s *MongoStore) GetServiceRequest(ctx context.Context, id string) (*ServiceRequest, error) {
	var req ServiceRequest
	err := s.db.Collection(collServiceRequests).FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find service request: %w", err)
	}
	return &req, nil
}

func (s *MongoStore) ApplyPayment(ctx context.Context, id string, p PaymentApplication) (*ServiceRequest, error) {
	// The guard lives in the filter: the update only matches while the paid
	// percentage stays within the acknowledged percentage.
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$progress_paid", p.ProgressDelta}},
			"$progress_actual",
		}},
	}
	update := bson.M{
		"$inc": bson.M{
			"payments_pending": -p.AmountDue,
			"progress_paid":    p.ProgressDelta,
			"payments_made":    p.AmountDue,
			"version":          1,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	var req ServiceRequest
	err := s.db.Collection(collServiceRequests).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetServiceRequest(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrProgressConflict
	}
	if err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}
	return &req, nil
}

func (s *MongoStore) SetProgressActual(ctx context.Context, id string, progress int) error {
	res, err := s.db.Collection(collServiceRequests).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"progress_actual": progress, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.Collection(collServiceRequests).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) InsertMilestones(ctx context.Context, milestones []*Milestone) error {
	if len(milestones) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, 0, len(milestones))
	for _, m := range milestones {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = MilestonePending
		}
		m.CreatedAt = now
		docs = append(docs, m)
	}

	_, err := s.db.Collection(collMilestones).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert milestones: %w", err)
	}
	return nil
}

func (s *MongoStore) ListMilestones(ctx context.Context, jobID string) ([]*Milestone, error) {
	cursor, err := s.db.Collection(collMilestones).Find(ctx,
		bson.M{"job_id": jobID},
		options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find milestones: %w", err)
	}
	defer cursor.Close(ctx)

	milestones := []*Milestone{}
	if err := cursor.All(ctx, &milestones); err != nil {
		return nil, fmt.Errorf("decode milestones: %w", err)
	}
	return milestones, nil
}

func (s *MongoStore) GetMilestone(ctx context.Context, id string) (*Milestone, error) {
	var m Milestone
	err := s.db.Collection(collMilestones).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find milestone: %w", err)
	}
	return &m, nil
}

func (s *MongoStore) CompleteMilestone(ctx context.Context, id string) (*Milestone, error) {
	var m Milestone
	err := s.db.Collection(collMilestones).
		FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": MilestoneCompleted}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).
		Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete milestone: %w", err)
	}
	return &m, nil
}

func (s *MongoStore) ReserveEvent(ctx context.Context, ev ProcessedEvent) error {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(collProcessedEvents).InsertOne(ctx, ev)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("reserve event: %w", err)
	}
	return nil
}

func (s *MongoStore) ReleaseEvent(ctx context.Context, reference string) error {
	_, err := s.db.Collection(collProcessedEvents).DeleteOne(ctx, bson.M{"_id": reference})
	if err != nil {
		return fmt.Errorf("release event: %w", err)
	}
	return nil
}

func (s *MongoStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error closing mongodb connection: %w", err)
	}
	return nil
}
