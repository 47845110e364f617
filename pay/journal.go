package pay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

// Journal is the append-only record of gateway notifications and of gateway
// orders left without a session. It satisfies gateway.OrphanRecorder.
type Journal interface {
	Append(ctx context.Context, ev models.WebhookEvent) error
	Event(ctx context.Context, id string) (models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id, outcome string, procErr error) error
	Unprocessed(ctx context.Context, limit int) ([]models.WebhookEvent, error)

	RecordOrphan(ctx context.Context, orderID string, cause error) error
	Orphans(ctx context.Context, limit int) ([]models.OrphanOrder, error)
	ResolveOrphan(ctx context.Context, orderID, status string) error
}

var ErrEventNotFound = errors.New("webhook event not found")

const (
	webhookEventsCollection = "webhook_events"
	orphanOrdersCollection  = "orphan_orders"
)

type MongoJournal struct {
	events  *mongo.Collection
	orphans *mongo.Collection
}

func NewMongoJournal(database *mongo.Database) *MongoJournal {
	return &MongoJournal{
		events:  database.Collection(webhookEventsCollection),
		orphans: database.Collection(orphanOrdersCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by replay and reconcile.
func (j *MongoJournal) EnsureIndexes(ctx context.Context) error {
	_, err := j.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetName("order_id")},
		{Keys: bson.D{{Key: "processed", Value: 1}, {Key: "received_at", Value: 1}}, Options: options.Index().SetName("unprocessed")},
	})
	if err != nil {
		return errors.Wrap(err, "webhook event indexes")
	}
	_, err = j.orphans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"order_id": 1},
		Options: options.Index().SetUnique(true).SetName("unique_order_id"),
	})
	return errors.Wrap(err, "orphan order indexes")
}

func (j *MongoJournal) Append(ctx context.Context, ev models.WebhookEvent) error {
	_, err := j.events.InsertOne(ctx, ev)
	return errors.Wrap(err, "append webhook event")
}

func (j *MongoJournal) Event(ctx context.Context, id string) (models.WebhookEvent, error) {
	var ev models.WebhookEvent
	err := j.events.FindOne(ctx, bson.M{"_id": id}).Decode(&ev)
	if err == mongo.ErrNoDocuments {
		return ev, ErrEventNotFound
	}
	return ev, errors.Wrap(err, "find webhook event")
}

func (j *MongoJournal) MarkProcessed(ctx context.Context, id, outcome string, procErr error) error {
	set := bson.M{"outcome": outcome}
	if procErr != nil {
		set["last_error"] = procErr.Error()
	} else {
		set["processed"] = true
		set["processed_at"] = time.Now().UTC()
		set["last_error"] = ""
	}
	_, err := j.events.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set, "$inc": bson.M{"attempts": 1}})
	return errors.Wrap(err, "mark webhook event")
}

func (j *MongoJournal) Unprocessed(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := j.events.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find unprocessed webhook events")
	}
	defer cur.Close(ctx)

	var out []models.WebhookEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode webhook events")
	}
	return out, nil
}

func (j *MongoJournal) RecordOrphan(ctx context.Context, orderID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := j.orphans.UpdateOne(ctx,
		bson.M{"order_id": orderID},
		bson.M{
			"$set":         bson.M{"cause": msg, "resolved": false},
			"$setOnInsert": bson.M{"order_id": orderID, "created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "record orphan order")
}

func (j *MongoJournal) Orphans(ctx context.Context, limit int) ([]models.OrphanOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := j.orphans.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find orphan orders")
	}
	defer cur.Close(ctx)

	var out []models.OrphanOrder
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode orphan orders")
	}
	return out, nil
}

func (j *MongoJournal) ResolveOrphan(ctx context.Context, orderID, status string) error {
	_, err := j.orphans.UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{"$set": bson.M{
		"resolved":    true,
		"status":      status,
		"resolved_at": time.Now().UTC(),
	}})
	return errors.Wrap(err, "resolve orphan order")
}

// MemoryJournal keeps the journal in process. Used without Mongo and in
// tests; entries do not survive a restart.
type MemoryJournal struct {
	mu      sync.Mutex
	events  map[string]models.WebhookEvent
	orphans map[string]models.OrphanOrder
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		events:  make(map[string]models.WebhookEvent),
		orphans: make(map[string]models.OrphanOrder),
	}
}

func (j *MemoryJournal) Append(ctx context.Context, ev models.WebhookEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.events[ev.ID]; ok {
		return errors.Errorf("webhook event %s already recorded", ev.ID)
	}
	j.events[ev.ID] = ev
	return nil
}

func (j *MemoryJournal) Event(ctx context.Context, id string) (models.WebhookEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ev, ok := j.events[id]
	if !ok {
		return ev, ErrEventNotFound
	}
	return ev, nil
}

func (j *MemoryJournal) MarkProcessed(ctx context.Context, id, outcome string, procErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	ev, ok := j.events[id]
	if !ok {
		return ErrEventNotFound
	}
	ev.Attempts++
	ev.Outcome = outcome
	if procErr != nil {
		ev.LastError = procErr.Error()
	} else {
		ev.Processed = true
		ev.ProcessedAt = time.Now().UTC()
		ev.LastError = ""
	}
	j.events[id] = ev
	return nil
}

func (j *MemoryJournal) Unprocessed(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.WebhookEvent
	for _, ev := range j.events {
		if !ev.Processed {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ReceivedAt.Before(out[b].ReceivedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *MemoryJournal) RecordOrphan(ctx context.Context, orderID string, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	o, ok := j.orphans[orderID]
	if !ok {
		o = models.OrphanOrder{OrderID: orderID, CreatedAt: time.Now().UTC()}
	}
	if cause != nil {
		o.Cause = cause.Error()
	}
	o.Resolved = false
	j.orphans[orderID] = o
	return nil
}

func (j *MemoryJournal) Orphans(ctx context.Context, limit int) ([]models.OrphanOrder, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.OrphanOrder
	for _, o := range j.orphans {
		if !o.Resolved {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *MemoryJournal) ResolveOrphan(ctx context.Context, orderID, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	o, ok := j.orphans[orderID]
	if !ok {
		return errors.Errorf("orphan order %s not recorded", orderID)
	}
	o.Resolved = true
	o.Status = status
	o.ResolvedAt = time.Now().UTC()
	j.orphans[orderID] = o
	return nil
}
