package state

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/filestore"
	"github.com/carlosatFroom/learning-system/internal/logger"
)

// DefaultObjectKey is the object key used when none is configured.
const DefaultObjectKey = "sync/state.json"

// maxRecordSize bounds how much of the object Load reads.
const maxRecordSize = 64 << 10

// ObjectStore keeps the record as a single object in a bucket, for
// deployments whose local disk does not survive restarts.
type ObjectStore struct {
	store  filestore.Store
	bucket string
	key    string
	log    *logger.Logger
}

var _ Store = (*ObjectStore)(nil)

// NewObjectStore returns a store backed by bucket/key on store.
func NewObjectStore(store filestore.Store, bucket, key string, log *logger.Logger) *ObjectStore {
	if key == "" {
		key = DefaultObjectKey
	}
	if log == nil {
		log = logger.Global()
	}
	return &ObjectStore{store: store, bucket: bucket, key: key, log: log.Component("state")}
}

// Load fetches and decodes the object; a missing object or any failure means
// never synced.
func (s *ObjectStore) Load(ctx context.Context) State {
	fields := map[string]interface{}{"bucket": s.bucket, "key": s.key}

	info, err := s.store.StatObject(ctx, s.bucket, s.key)
	if err != nil {
		if !errs.IsNotFound(err) {
			s.log.WarnWith("sync state unreadable, treating as never synced", err, fields)
		}
		return State{}
	}
	if info.Size > maxRecordSize {
		fields["size"] = info.Size
		s.log.WarnWith("sync state corrupt, treating as never synced", errs.New(errs.ErrKindInvalidInput, "record too large"), fields)
		return State{}
	}

	obj, err := s.store.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		s.log.WarnWith("sync state unreadable, treating as never synced", err, fields)
		return State{}
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxRecordSize))
	if err != nil {
		s.log.WarnWith("sync state unreadable, treating as never synced", err, fields)
		return State{}
	}

	st, err := decode(data)
	if err != nil {
		s.log.WarnWith("sync state corrupt, treating as never synced", err, fields)
		return State{}
	}
	return st
}

// Save uploads the record, creating the bucket on first use. Object stores
// replace objects whole, so readers never see a partial record.
func (s *ObjectStore) Save(ctx context.Context, t time.Time) error {
	data, err := encode(t)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode sync state", err)
	}

	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		return err
	}
	return s.store.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), "application/json")
}

// Describe returns the bucket and key.
func (s *ObjectStore) Describe() string {
	return "object:" + s.bucket + "/" + s.key
}
