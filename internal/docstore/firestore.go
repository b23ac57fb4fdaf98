package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/ubuntu/decorate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreStore is a Store backed by a Firestore collection.
type firestoreStore struct {
	client     *firestore.Client
	collection string
}

func openFirestore(ctx context.Context, cfg Config) (s *firestoreStore, err error) {
	defer decorate.OnError(&err, "could not open Firestore document store")

	if cfg.Project == "" {
		return nil, errors.New("missing project id")
	}
	database := cfg.Database
	if database == "" {
		database = constants.DefaultFirestoreDatabase
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.Project, database, opts...)
	if err != nil {
		return nil, err
	}
	return &firestoreStore{client: client, collection: cfg.Collection}, nil
}

func (s *firestoreStore) doc(id string) (*firestore.DocumentRef, error) {
	ref := s.client.Collection(s.collection).Doc(id)
	if ref == nil {
		return nil, fmt.Errorf("invalid document id %q", id)
	}
	return ref, nil
}

// Exists reports whether the document of id is stored.
func (s *firestoreStore) Exists(ctx context.Context, id string) (exists bool, err error) {
	defer decorate.OnError(&err, "Firestore lookup failed")

	ref, err := s.doc(id)
	if err != nil {
		return false, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return snap.Exists(), nil
}

// Delete removes the document of id.
func (s *firestoreStore) Delete(ctx context.Context, id string) (err error) {
	defer decorate.OnError(&err, "Firestore delete failed")

	ref, err := s.doc(id)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return err
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
