package song

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"songvault/model"
)

// fakeRepo is an in-memory SongRepository recording calls into a shared log.
type fakeRepo struct {
	songs map[string]*model.Song
	calls *[]string

	createErr error
	updateErr error
	deleteErr error
	getErr    error
	listErr   error
}

func newFakeRepo(calls *[]string) *fakeRepo {
	return &fakeRepo{songs: make(map[string]*model.Song), calls: calls}
}

func (r *fakeRepo) record(call string) {
	if r.calls != nil {
		*r.calls = append(*r.calls, call)
	}
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]*model.Song, error) {
	r.record("repo.ListAll")
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*model.Song, 0, len(r.songs))
	for _, s := range r.songs {
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*model.Song, error) {
	r.record("repo.GetByID")
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.songs[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeRepo) Create(ctx context.Context, song *model.Song) error {
	r.record("repo.Create")
	if r.createErr != nil {
		return r.createErr
	}
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now
	copied := *song
	r.songs[song.ID] = &copied
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, song *model.Song) error {
	r.record("repo.Update")
	if r.updateErr != nil {
		return r.updateErr
	}
	song.UpdatedAt = time.Now().UTC()
	copied := *song
	r.songs[song.ID] = &copied
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, song *model.Song) error {
	r.record("repo.Delete")
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.songs, song.ID)
	return nil
}

func (r *fakeRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.record("repo.Exists")
	_, ok := r.songs[id]
	return ok, nil
}

// fakeStore is an in-memory ObjectStore recording calls into the same log.
type fakeStore struct {
	calls *[]string

	putKeys     []string
	putTypes    []string
	removedKeys []string

	putErr     error
	removeErr  error
	presignErr error
}

func newFakeStore(calls *[]string) *fakeStore {
	return &fakeStore{calls: calls}
}

func (s *fakeStore) record(call string) {
	if s.calls != nil {
		*s.calls = append(*s.calls, call)
	}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	s.record("store.Put")
	if s.putErr != nil {
		return s.putErr
	}
	s.putKeys = append(s.putKeys, key)
	s.putTypes = append(s.putTypes, contentType)
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.record("store.Remove")
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removedKeys = append(s.removedKeys, key)
	return nil
}

func (s *fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.record("store.PresignGet")
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return fmt.Sprintf("https://minio.test/songs/%s?X-Amz-Expires=%d&X-Amz-Signature=abc", key, int(ttl.Seconds())), nil
}

func (s *fakeStore) ObjectURL(key string) string {
	return "https://minio.test/songs/" + key
}

func validMeta() model.SongMeta {
	return model.SongMeta{
		Title:       "A",
		Singer:      "B",
		ReleaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validUpload() *model.Upload {
	return &model.Upload{
		Filename:    "track.flac",
		ContentType: "audio/flac",
		Size:        4,
		Content:     strings.NewReader("data"),
	}
}

func newTestService() (*Service, *fakeRepo, *fakeStore, *[]string) {
	calls := &[]string{}
	repo := newFakeRepo(calls)
	store := newFakeStore(calls)
	svc := NewService(repo, store, nil, 10*time.Minute)
	return svc, repo, store, calls
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores Object And Row", func(t *testing.T) {
		svc, repo, store, _ := newTestService()

		view, err := svc.Add(ctx, validUpload(), validMeta())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if view.Title != "A" {
			t.Errorf("expected title 'A', got %q", view.Title)
		}
		if len(store.putKeys) != 1 {
			t.Fatalf("expected one upload, got %d", len(store.putKeys))
		}
		key := store.putKeys[0]
		if !strings.HasSuffix(key, "_track.flac") {
			t.Errorf("expected key ending in _track.flac, got %q", key)
		}
		if len(key) <= len("_track.flac") {
			t.Errorf("expected a random key prefix, got %q", key)
		}
		if store.putTypes[0] != "audio/flac" {
			t.Errorf("expected declared content type on upload, got %q", store.putTypes[0])
		}

		stored, ok := repo.songs[view.ID]
		if !ok {
			t.Fatal("expected row to be persisted")
		}
		if stored.StorageURL != "https://minio.test/songs/"+key {
			t.Errorf("unexpected stored reference %q", stored.StorageURL)
		}
	})

	t.Run("Presigns Returned URL", func(t *testing.T) {
		svc, _, store, _ := newTestService()

		view, err := svc.Add(ctx, validUpload(), validMeta())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		key := store.putKeys[0]
		if view.StorageURL == key || view.StorageURL == store.ObjectURL(key) {
			t.Errorf("expected a presigned URL, got the raw reference %q", view.StorageURL)
		}
		if !strings.Contains(view.StorageURL, "X-Amz-Expires=600") {
			t.Errorf("expected a 10 minute expiry, got %q", view.StorageURL)
		}
	})

	t.Run("Generates Id When Absent", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		view, err := svc.Add(ctx, validUpload(), validMeta())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if view.ID == "" {
			t.Error("expected a server-generated id")
		}
	})

	t.Run("Honors Caller Supplied Id", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		meta := validMeta()
		meta.ID = "song-1"
		view, err := svc.Add(ctx, validUpload(), meta)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if view.ID != "song-1" {
			t.Errorf("expected id song-1, got %q", view.ID)
		}
	})

	t.Run("Duplicate Id Conflicts Before Upload", func(t *testing.T) {
		svc, repo, store, _ := newTestService()
		repo.songs["song-1"] = &model.Song{ID: "song-1", StorageURL: "https://minio.test/songs/k_old.mp3"}

		meta := validMeta()
		meta.ID = "song-1"
		_, err := svc.Add(ctx, validUpload(), meta)
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if len(store.putKeys) != 0 {
			t.Errorf("expected no upload on conflict, got %d", len(store.putKeys))
		}
	})

	t.Run("Rejects Invalid Metadata", func(t *testing.T) {
		svc, _, store, _ := newTestService()

		meta := validMeta()
		meta.Title = ""
		_, err := svc.Add(ctx, validUpload(), meta)
		if !errors.Is(err, ErrInvalidSong) {
			t.Fatalf("expected ErrInvalidSong, got %v", err)
		}
		if len(store.putKeys) != 0 {
			t.Errorf("expected no upload on invalid metadata, got %d", len(store.putKeys))
		}
	})

	t.Run("Rejects Unsupported File", func(t *testing.T) {
		svc, _, store, _ := newTestService()

		upload := &model.Upload{
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Content:     strings.NewReader("x"),
		}
		_, err := svc.Add(ctx, upload, validMeta())
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}

		if _, err := svc.Add(ctx, nil, validMeta()); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat for nil upload, got %v", err)
		}
		if len(store.putKeys) != 0 {
			t.Errorf("expected no uploads, got %d", len(store.putKeys))
		}
	})

	t.Run("Upload Failure Is Clean", func(t *testing.T) {
		svc, repo, store, _ := newTestService()
		store.putErr = errors.New("connection refused")

		_, err := svc.Add(ctx, validUpload(), validMeta())
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}
		if len(repo.songs) != 0 {
			t.Error("expected no row after a failed upload")
		}
	})

	t.Run("Row Write Failure Leaves Orphaned Object", func(t *testing.T) {
		svc, repo, store, _ := newTestService()
		repoErr := errors.New("deadlock")
		repo.createErr = repoErr

		_, err := svc.Add(ctx, validUpload(), validMeta())
		if !errors.Is(err, repoErr) {
			t.Fatalf("expected the repository error to propagate, got %v", err)
		}
		// The object was uploaded and stays behind for the cleanup sweep.
		if len(store.putKeys) != 1 {
			t.Errorf("expected one uploaded object, got %d", len(store.putKeys))
		}
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Absent Is Not An Error", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		view, err := svc.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if view != nil {
			t.Errorf("expected nil view, got %+v", view)
		}
	})

	t.Run("Presigns Stored Reference", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		repo.songs["song-1"] = &model.Song{
			ID:         "song-1",
			Title:      "A",
			Singer:     "B",
			StorageURL: "https://minio.test/songs/k_track.flac",
		}

		view, err := svc.Get(ctx, "song-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if view == nil {
			t.Fatal("expected a view")
		}
		if !strings.Contains(view.StorageURL, "k_track.flac") || !strings.Contains(view.StorageURL, "X-Amz-Signature") {
			t.Errorf("expected a presigned URL for the stored key, got %q", view.StorageURL)
		}
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("Enriches Every Row", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		repo.songs["a"] = &model.Song{ID: "a", StorageURL: "https://minio.test/songs/k_a.mp3"}
		repo.songs["b"] = &model.Song{ID: "b", StorageURL: "https://minio.test/songs/k_b.mp3"}

		views, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 2 {
			t.Fatalf("expected 2 views, got %d", len(views))
		}
		for _, v := range views {
			if !strings.Contains(v.StorageURL, "X-Amz-Signature") {
				t.Errorf("expected presigned URL for %q, got %q", v.ID, v.StorageURL)
			}
		}
	})

	t.Run("Propagates Repository Failure", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		repo.listErr = errors.New("connection lost")

		if _, err := svc.List(ctx); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejects Id Mismatch", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		pairs := [][2]string{
			{"song-1", "song-2"},
			{"song-1", ""},
			{"", "song-1"},
		}
		for _, pair := range pairs {
			meta := validMeta()
			meta.ID = pair[1]
			if err := svc.Update(ctx, pair[0], meta); !errors.Is(err, ErrIDMismatch) {
				t.Errorf("expected ErrIDMismatch for %q != %q, got %v", pair[1], pair[0], err)
			}
		}
	})

	t.Run("Missing Row Is Not Found", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		meta := validMeta()
		meta.ID = "missing"
		if err := svc.Update(ctx, "missing", meta); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Changes Metadata Only", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		ref := "https://minio.test/songs/k_track.flac"
		repo.songs["song-1"] = &model.Song{ID: "song-1", Title: "Old", Singer: "B", StorageURL: ref}

		meta := validMeta()
		meta.ID = "song-1"
		meta.Title = "New"
		if err := svc.Update(ctx, "song-1", meta); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		stored := repo.songs["song-1"]
		if stored.Title != "New" {
			t.Errorf("expected updated title, got %q", stored.Title)
		}
		if stored.StorageURL != ref {
			t.Errorf("expected storage reference untouched, got %q", stored.StorageURL)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Row Is Not Found", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Removes Object Then Row", func(t *testing.T) {
		svc, repo, store, calls := newTestService()
		repo.songs["song-1"] = &model.Song{ID: "song-1", StorageURL: "https://minio.test/songs/k_track.flac"}

		if err := svc.Delete(ctx, "song-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(store.removedKeys) != 1 || store.removedKeys[0] != "k_track.flac" {
			t.Fatalf("expected exactly one object delete for the derived key, got %v", store.removedKeys)
		}
		if _, ok := repo.songs["song-1"]; ok {
			t.Error("expected row to be deleted")
		}

		// Exactly one remove and one delete, object first.
		var removeIdx, deleteIdx, removes, deletes int
		for i, call := range *calls {
			switch call {
			case "store.Remove":
				removes++
				removeIdx = i
			case "repo.Delete":
				deletes++
				deleteIdx = i
			}
		}
		if removes != 1 || deletes != 1 {
			t.Fatalf("expected one remove and one delete, got %d and %d", removes, deletes)
		}
		if removeIdx > deleteIdx {
			t.Error("expected the object delete to precede the row delete")
		}
	})

	t.Run("Storage Failure Keeps Row", func(t *testing.T) {
		svc, repo, store, _ := newTestService()
		repo.songs["song-1"] = &model.Song{ID: "song-1", StorageURL: "https://minio.test/songs/k.mp3"}
		store.removeErr = errors.New("connection refused")

		if err := svc.Delete(ctx, "song-1"); !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}
		if _, ok := repo.songs["song-1"]; !ok {
			t.Error("expected row to survive a failed object delete")
		}
	})
}

func TestKeyFromReference(t *testing.T) {
	cases := map[string]string{
		"https://minio.test/songs/abc_track.flac": "abc_track.flac",
		"abc_track.flac":                          "abc_track.flac",
		"https://minio.test/songs/":               "",
	}
	for ref, want := range cases {
		if got := keyFromReference(ref); got != want {
			t.Errorf("keyFromReference(%q) = %q, want %q", ref, got, want)
		}
	}
}
