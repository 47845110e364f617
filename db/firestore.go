package db

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreCollection[T any] struct {
	name string
	ref  *firestore.CollectionRef
}

func (c *firestoreCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	snap, err := c.ref.Doc(id).Get(ctx)
	if err != nil {
		return doc, c.wrap(err, "get "+id)
	}
	if err := snap.DataTo(&doc); err != nil {
		return doc, errors.Wrapf(err, "decode %s/%s", c.name, id)
	}
	return doc, nil
}

func (c *firestoreCollection[T]) List(ctx context.Context, q Query) ([]T, error) {
	query := c.ref.Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, f.Op, f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, c.wrap(err, "list")
		}
		var doc T
		if err := snap.DataTo(&doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s/%s", c.name, snap.Ref.ID)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *firestoreCollection[T]) Set(ctx context.Context, id string, doc T) error {
	_, err := c.ref.Doc(id).Set(ctx, doc)
	return c.wrap(err, "set "+id)
}

func (c *firestoreCollection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	_, err := c.ref.Doc(id).Update(ctx, updates)
	return c.wrap(err, "update "+id)
}

func (c *firestoreCollection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.ref.Doc(id).Delete(ctx)
	return c.wrap(err, "delete "+id)
}

func (c *firestoreCollection[T]) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return errors.Wrapf(err, "%s: %s", c.name, op)
}
