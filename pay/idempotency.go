package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	idempotencyCollection = "idempotency_keys"
	idempotencyTTL        = 24 * time.Hour
	maxIdempotentBody     = 1 << 20
)

var (
	ErrDuplicateKey        = errors.New("idempotency key already recorded")
	ErrIdempotencyNotFound = errors.New("idempotency key not found")
)

type IdempotencyStore interface {
	// Insert fails with ErrDuplicateKey when key is already recorded.
	Insert(ctx context.Context, rec models.IdempotencyRecord) error
	Find(ctx context.Context, key string) (models.IdempotencyRecord, error)
	SaveResponse(ctx context.Context, key string, response map[string]interface{}) error
	// Delete releases key so the request can be retried.
	Delete(ctx context.Context, key string) error
}

type MongoIdempotencyStore struct {
	coll *mongo.Collection
}

func NewMongoIdempotencyStore(database *mongo.Database) *MongoIdempotencyStore {
	return &MongoIdempotencyStore{coll: database.Collection(idempotencyCollection)}
}

// EnsureIndexes creates the unique key and TTL indexes.
func (s *MongoIdempotencyStore) EnsureIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	_, err := s.coll.Indexes().CreateMany(ctx, idxs)
	return errors.Wrap(err, "idempotency indexes")
}

func (s *MongoIdempotencyStore) Insert(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return errors.Wrap(err, "insert idempotency record")
}

func (s *MongoIdempotencyStore) Find(ctx context.Context, key string) (models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := s.coll.FindOne(ctx, bson.M{"key": key}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return rec, ErrIdempotencyNotFound
	}
	return rec, errors.Wrap(err, "find idempotency record")
}

func (s *MongoIdempotencyStore) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"response": response}})
	return errors.Wrap(err, "save idempotency response")
}

func (s *MongoIdempotencyStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"key": key})
	return errors.Wrap(err, "delete idempotency record")
}

// MemoryIdempotencyStore expires records lazily on lookup.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]models.IdempotencyRecord
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: make(map[string]models.IdempotencyRecord), now: time.Now}
}

func (s *MemoryIdempotencyStore) Insert(ctx context.Context, rec models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.Key]; ok && s.now().Before(existing.ExpiresAt) {
		return ErrDuplicateKey
	}
	s.records[rec.Key] = rec
	return nil
}

func (s *MemoryIdempotencyStore) Find(ctx context.Context, key string) (models.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || !s.now().Before(rec.ExpiresAt) {
		delete(s.records, key)
		return models.IdempotencyRecord{}, ErrIdempotencyNotFound
	}
	return rec, nil
}

func (s *MemoryIdempotencyStore) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return ErrIdempotencyNotFound
	}
	rec.Response = response
	s.records[key] = rec
	return nil
}

func (s *MemoryIdempotencyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{w: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

func (c *CaptureResponseWriter) Status() int {
	return c.statusCode
}

func (c *CaptureResponseWriter) BodyBytes() []byte {
	return c.buf.Bytes()
}

// Idempotent replays the stored response for a repeated Idempotency-Key.
//   - no header: pass through
//   - body over 1 MiB: 413
//   - first use: run the handler; a 2xx status and body are stored, any
//     other response releases the key so the client can retry
//   - same key, different request: 409
//   - same key, stored response: replay it
//   - same key, still in flight: 409, the client retries later
func Idempotent(store IdempotencyStore) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || store == nil {
				next(w, r, ps)
				return
			}

			userID := utils.GetUserIDFromRequest(r)

			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			if len(bodyBytes) > maxIdempotentBody {
				utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			reqHash := computeRequestHash(r, bodyBytes, userID)
			now := time.Now().UTC()
			rec := models.IdempotencyRecord{
				Key:         key,
				Method:      r.Method,
				Path:        r.URL.Path,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(idempotencyTTL),
			}

			ctx := r.Context()
			logger := log.WithField("idempotency_key", key)

			err = store.Insert(ctx, rec)
			if err == nil {
				crw := NewCaptureResponseWriter(w)
				next(crw, r, ps)

				if status := crw.Status(); status < 200 || status > 299 {
					if err := store.Delete(context.WithoutCancel(ctx), key); err != nil {
						logger.WithError(err).Warn("Could not release idempotency key")
					}
					return
				}
				response := map[string]interface{}{
					"status":       crw.Status(),
					"content_type": crw.Header().Get("Content-Type"),
					"body":         string(crw.BodyBytes()),
				}
				if err := store.SaveResponse(context.WithoutCancel(ctx), key, response); err != nil {
					logger.WithError(err).Warn("Could not store idempotent response")
				}
				return
			}

			if !errors.Is(err, ErrDuplicateKey) {
				logger.WithError(err).Error("Idempotency insert failed")
				utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
				return
			}

			existing, err := store.Find(ctx, key)
			if err != nil {
				logger.WithError(err).Error("Idempotency lookup failed")
				utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
				return
			}

			if existing.RequestHash != reqHash {
				utils.RespondWithError(w, http.StatusConflict, "idempotency-key conflict")
				return
			}

			if existing.Response != nil {
				status := http.StatusOK
				switch v := existing.Response["status"].(type) {
				case int:
					status = v
				case int32:
					status = int(v)
				case int64:
					status = int(v)
				case float64:
					status = int(v)
				}
				body, _ := existing.Response["body"].(string)
				contentType, _ := existing.Response["content_type"].(string)
				if contentType == "" {
					contentType = "application/json"
				}
				w.Header().Set("Content-Type", contentType)
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(body))
				return
			}

			utils.RespondWithError(w, http.StatusConflict, "request with this idempotency-key is still in progress")
		}
	}
}
