package song

import (
	"context"
	"fmt"
	"strings"
	"time"

	"songvault/logger"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"

	"github.com/google/uuid"
)

// rowCache caches song rows between the service and the repository. A nil
// cache disables caching; cache failures are logged and bypassed, never
// surfaced to callers.
type rowCache interface {
	Get(ctx context.Context, id string) (*model.Song, error)
	Set(ctx context.Context, song *model.Song) error
	Invalidate(ctx context.Context, id string) error
}

// Service orchestrates validation, object lifecycle and repository calls for
// the song catalog. A row exists if and only if its object does, except for
// the documented failure window on Add.
type Service struct {
	repo       repository.SongRepository
	store      storage.ObjectStore
	cache      rowCache
	presignTTL time.Duration
}

// NewService wires the song service. cache may be nil.
func NewService(repo repository.SongRepository, store storage.ObjectStore, cache rowCache, presignTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		store:      store,
		cache:      cache,
		presignTTL: presignTTL,
	}
}

// List returns every song with a freshly presigned download URL.
func (s *Service) List(ctx context.Context) ([]model.SongView, error) {
	songs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]model.SongView, 0, len(songs))
	for _, sg := range songs {
		view, err := s.presignView(ctx, sg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Get returns one song with a freshly presigned download URL, or (nil, nil)
// when no such song exists.
func (s *Service) Get(ctx context.Context, id string) (*model.SongView, error) {
	sg, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg == nil {
		return nil, nil
	}

	view, err := s.presignView(ctx, sg)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Add validates the upload, stores the object, persists the row and returns
// the presigned view. Ordering keeps the object store as the last-committed
// resource: a failed row write after a successful upload leaves an orphaned
// object for the out-of-band reconciliation sweep.
func (s *Service) Add(ctx context.Context, upload *model.Upload, meta model.SongMeta) (*model.SongView, error) {
	if !isSupportedAudio(upload) {
		return nil, ErrUnsupportedFormat
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSong, err)
	}

	// Callers may supply an id; an empty one is server-generated.
	if meta.ID != "" {
		exists, err := s.repo.Exists(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, meta.ID)
		}
	} else {
		meta.ID = uuid.NewString()
	}

	// Random prefix rules out key collisions while keeping a readable suffix.
	key := fmt.Sprintf("%s_%s", uuid.NewString(), upload.Filename)

	if err := s.store.Put(ctx, key, upload.ContentType, upload.Content, upload.Size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sg := &model.Song{ID: meta.ID, StorageURL: s.store.ObjectURL(key)}
	meta.Apply(sg)

	if err := s.repo.Create(ctx, sg); err != nil {
		// The uploaded object is now orphaned; leave it for the cleanup sweep.
		logger.Error("song row write failed after upload, object orphaned",
			logger.String("songId", sg.ID),
			logger.String("key", key),
			logger.ErrorField(err))
		return nil, err
	}

	s.dropCached(ctx, sg.ID)
	logger.Info("song added",
		logger.String("songId", sg.ID),
		logger.String("key", key))

	view, err := s.presignView(ctx, sg)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Update overwrites the metadata fields of an existing song. The audio object
// and the stored reference are never touched.
func (s *Service) Update(ctx context.Context, id string, meta model.SongMeta) error {
	if meta.ID != id {
		return fmt.Errorf("%w: %q != %q", ErrIDMismatch, meta.ID, id)
	}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSong, err)
	}

	sg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sg == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	meta.Apply(sg)
	if err := s.repo.Update(ctx, sg); err != nil {
		return err
	}

	s.dropCached(ctx, id)
	return nil
}

// Delete removes the object first and the row second, so a crash mid-operation
// leaves at worst a dangling row pointing at a missing object, which is
// detectable and safely re-deletable.
func (s *Service) Delete(ctx context.Context, id string) error {
	sg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sg == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	key := keyFromReference(sg.StorageURL)
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.repo.Delete(ctx, sg); err != nil {
		return err
	}

	s.dropCached(ctx, id)
	logger.Info("song deleted",
		logger.String("songId", id),
		logger.String("key", key))
	return nil
}

// lookup reads a row through the cache.
func (s *Service) lookup(ctx context.Context, id string) (*model.Song, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Warn("song cache read failed", logger.String("songId", id), logger.ErrorField(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	sg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg != nil && s.cache != nil {
		if err := s.cache.Set(ctx, sg); err != nil {
			logger.Warn("song cache write failed", logger.String("songId", id), logger.ErrorField(err))
		}
	}
	return sg, nil
}

func (s *Service) dropCached(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("song cache invalidation failed", logger.String("songId", id), logger.ErrorField(err))
	}
}

// presignView maps a row to its view with a time-limited download URL in place
// of the stored reference.
func (s *Service) presignView(ctx context.Context, sg *model.Song) (model.SongView, error) {
	view := sg.View()

	signed, err := s.store.PresignGet(ctx, keyFromReference(sg.StorageURL), s.presignTTL)
	if err != nil {
		return model.SongView{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	view.StorageURL = signed
	return view, nil
}

// keyFromReference recovers the storage key from a stored reference: the
// suffix after the last path separator.
func keyFromReference(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
