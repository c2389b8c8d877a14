package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/docpath"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

// Store maps the document tree onto Firestore: paths with an odd number of
// segments are collections (sessions, chats/{id}/messages), paths with an
// even number are documents (sessions/{id}, chats/{id}).
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Honors FIRESTORE_EMULATOR_HOST like every Firestore client.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

var errDocumentValue = errors.New("firestore documents must be JSON objects")

func (s *Store) collection(parts []string) *firestore.CollectionRef {
	col := s.client.Collection(parts[0])
	for i := 1; i+1 < len(parts); i += 2 {
		col = col.Doc(parts[i]).Collection(parts[i+1])
	}
	return col
}

func (s *Store) document(parts []string) *firestore.DocumentRef {
	return s.collection(parts[:len(parts)-1]).Doc(parts[len(parts)-1])
}

func isCollection(parts []string) bool {
	return len(parts)%2 == 1
}

// toData converts a JSON-encodable value into Firestore document data.
func toData(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errDocumentValue
	}
	return data, nil
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	parts, err := docpath.Split(path)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}

	if !isCollection(parts) {
		snap, err := s.document(parts).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil
			}
			return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
		}
		raw, err := json.Marshal(snap.Data())
		if err != nil {
			return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
		}
		return raw, nil
	}

	iter := s.collection(parts).Documents(ctx)
	defer iter.Stop()

	out := make(map[string]any)
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
		}
		out[snap.Ref.ID] = snap.Data()
	}

	if len(out) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}
	return raw, nil
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}

	data, err := toData(value)
	if err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}

	if !isCollection(parts) {
		if _, err := s.document(parts).Set(ctx, data); err != nil {
			return &domain.StoreError{Op: "put", Path: path, Err: err}
		}
		return nil
	}

	// Replacing a collection: drop what is there, then write each child.
	col := s.collection(parts)
	if err := s.deleteCollection(ctx, col); err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}
	for id, child := range data {
		childData, ok := child.(map[string]any)
		if !ok {
			return &domain.StoreError{Op: "put", Path: path, Err: errDocumentValue}
		}
		if _, err := col.Doc(id).Set(ctx, childData); err != nil {
			return &domain.StoreError{Op: "put", Path: path, Err: err}
		}
	}
	return nil
}

func (s *Store) Post(ctx context.Context, path string, value any) (string, error) {
	parts, err := docpath.Split(path)
	if err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}
	if !isCollection(parts) {
		return "", &domain.StoreError{Op: "post", Path: path, Err: fmt.Errorf("%w: not a collection", domain.ErrInvalidPath)}
	}

	data, err := toData(value)
	if err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}

	ref := s.collection(parts).NewDoc()
	if _, err := ref.Set(ctx, data); err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}
	return ref.ID, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}

	if isCollection(parts) {
		err = s.deleteCollection(ctx, s.collection(parts))
	} else {
		err = s.deleteDocument(ctx, s.document(parts))
	}
	if err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// deleteDocument removes a document together with all of its subcollections.
func (s *Store) deleteDocument(ctx context.Context, doc *firestore.DocumentRef) error {
	d := &bulkDelete{bw: s.client.BulkWriter(ctx)}
	return d.finish(d.document(ctx, doc))
}

// deleteCollection removes every document of col, recursively.
func (s *Store) deleteCollection(ctx context.Context, col *firestore.CollectionRef) error {
	d := &bulkDelete{bw: s.client.BulkWriter(ctx)}
	return d.finish(d.collection(ctx, col))
}

// bulkDelete queues the deletes of a subtree on one BulkWriter.
type bulkDelete struct {
	bw   *firestore.BulkWriter
	jobs []*firestore.BulkWriterJob
}

func (d *bulkDelete) document(ctx context.Context, doc *firestore.DocumentRef) error {
	cols := doc.Collections(ctx)
	for {
		col, err := cols.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("list subcollections of %s: %w", doc.Path, err)
		}
		if err := d.collection(ctx, col); err != nil {
			return err
		}
	}

	job, err := d.bw.Delete(doc)
	if err != nil {
		return fmt.Errorf("queue delete of %s: %w", doc.Path, err)
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *bulkDelete) collection(ctx context.Context, col *firestore.CollectionRef) error {
	refs := col.DocumentRefs(ctx)
	for {
		ref, err := refs.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("list %s: %w", col.Path, err)
		}
		if err := d.document(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// finish flushes whatever was queued and reports the first failure.
func (d *bulkDelete) finish(err error) error {
	d.bw.End()
	if err != nil {
		return err
	}
	for _, job := range d.jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk delete: %w", err)
		}
	}
	return nil
}
