// Package db is the document store behind the storefront. Collections are
// flat and keyed by generated id; Firestore is the production backend and
// an in-memory store serves local development and tests.
package db

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

var ErrNotFound = errors.New("document not found")

const (
	UsersCollection       = "users"
	CategoriesCollection  = "categories"
	ProductsCollection    = "products"
	CartItemsCollection   = "cart_items"
	OrdersCollection      = "orders"
	OrderItemsCollection  = "order_items"
	NewslettersCollection = "newsletters"
	PagesCollection       = "pages"
	SettingsCollection    = "settings"
	ReviewsCollection     = "reviews"
)

// Filter operators understood by both backends.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpIn           = "in"
)

type Filter struct {
	Field string
	Op    string
	Value any
}

func Where(field, op string, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query narrows a List call. Zero value lists everything.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) Where(field, op string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Where(field, op, value))
	return q
}

// Collection is typed access to one collection. Documents are stored under
// the id passed to Set; Get and Update return ErrNotFound for a missing id.
type Collection[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, q Query) ([]T, error)
	Set(ctx context.Context, id string, doc T) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Conn holds whichever backend the process was started with.
type Conn struct {
	fs  *firestore.Client
	mem *memoryStore
}

// Connect opens a Firestore client. credentialsFile may be empty to use
// application default credentials or FIRESTORE_EMULATOR_HOST.
func Connect(ctx context.Context, projectID, credentialsFile string) (*Conn, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect firestore")
	}
	log.WithField("project", projectID).Info("Connected to Firestore")
	return &Conn{fs: client}, nil
}

func NewMemory() *Conn {
	return &Conn{mem: newMemoryStore()}
}

func (c *Conn) Backend() string {
	if c.fs != nil {
		return "firestore"
	}
	return "memory"
}

func (c *Conn) Close() error {
	if c.fs != nil {
		return c.fs.Close()
	}
	return nil
}

// For returns the named collection of c decoded as T.
func For[T any](c *Conn, name string) Collection[T] {
	if c.fs != nil {
		return &firestoreCollection[T]{name: name, ref: c.fs.Collection(name)}
	}
	return &memoryCollection[T]{name: name, store: c.mem}
}
