package photo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

type failingStorage struct {
	putErr    error
	deleteErr error
	deleted   []string
}

func (f *failingStorage) Put(context.Context, string, io.Reader, int64, string) error {
	return f.putErr
}

func (f *failingStorage) Delete(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

func (f *failingStorage) URL(baseURL, name string) string {
	return baseURL + "/x/" + name
}

func newDiskService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	storage, err := NewDiskStorage(dir)
	if err != nil {
		t.Fatalf("NewDiskStorage: %v", err)
	}
	return NewService(storage, 1024), dir
}

func TestIngestStoresFile(t *testing.T) {
	svc, dir := newDiskService(t)

	p, err := svc.Ingest(context.Background(), &Upload{
		Filename: "Portrait.PNG",
		Body:     bytes.NewReader(pngBytes),
	}, "http://host")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(p.Name, ".png") {
		t.Errorf("expected lowercased .png extension, got %s", p.Name)
	}
	if p.URL != "http://host/uploads/"+p.Name {
		t.Errorf("unexpected URL: %s", p.URL)
	}

	got, err := os.ReadFile(filepath.Join(dir, p.Name))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(got, pngBytes) {
		t.Error("stored bytes differ from upload")
	}
}

func TestIngestDerivesExtensionFromContent(t *testing.T) {
	svc, _ := newDiskService(t)

	p, err := svc.Ingest(context.Background(), &Upload{
		Filename: "photo.txt",
		Body:     bytes.NewReader(pngBytes),
	}, "http://host")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(p.Name) != ".png" {
		t.Errorf("expected .png, got %s", p.Name)
	}
}

func TestIngestUniqueNames(t *testing.T) {
	svc, _ := newDiskService(t)

	var (
		mu    sync.Mutex
		names = map[string]bool{}
		wg    sync.WaitGroup
	)
	for range 20 {
		wg.Go(func() {
			p, err := svc.Ingest(context.Background(), &Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)}, "http://host")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			names[p.Name] = true
			mu.Unlock()
		})
	}
	wg.Wait()

	if len(names) != 20 {
		t.Fatalf("expected 20 distinct names, got %d", len(names))
	}
}

func TestIngestNoFile(t *testing.T) {
	svc, _ := newDiskService(t)

	if _, err := svc.Ingest(context.Background(), nil, "http://host"); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	_, err := svc.Ingest(context.Background(), &Upload{Filename: "a.png", Body: bytes.NewReader(nil)}, "http://host")
	if !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile for empty body, got %v", err)
	}
}

func TestIngestRejectsNonImage(t *testing.T) {
	svc, dir := newDiskService(t)

	_, err := svc.Ingest(context.Background(), &Upload{
		Filename: "evil.png",
		Body:     strings.NewReader("<html><script>alert(1)</script></html>"),
	}, "http://host")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected nothing stored, found %d entries", len(entries))
	}
}

func TestIngestTooLarge(t *testing.T) {
	svc, _ := newDiskService(t)

	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{1}, 2048)...)
	_, err := svc.Ingest(context.Background(), &Upload{Filename: "a.png", Body: bytes.NewReader(big)}, "http://host")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestIngestStorageFailure(t *testing.T) {
	storage := &failingStorage{putErr: errors.New("disk full")}
	svc := NewService(storage, 0)

	_, err := svc.Ingest(context.Background(), &Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)}, "http://host")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if svc.MaxBytes() != DefaultMaxBytes {
		t.Errorf("expected default limit, got %d", svc.MaxBytes())
	}
}

func TestDiscard(t *testing.T) {
	svc, dir := newDiskService(t)
	ctx := context.Background()

	p, err := svc.Ingest(ctx, &Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)}, "http://host")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Discard(ctx, p.Name); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, p.Name)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := svc.Discard(ctx, p.Name); err != nil {
		t.Fatalf("second Discard should be a no-op, got %v", err)
	}
}

func TestDiscardStorageFailure(t *testing.T) {
	storage := &failingStorage{deleteErr: errors.New("denied")}
	svc := NewService(storage, 0)

	if err := svc.Discard(context.Background(), "a.png"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestDiskStorageRejectsTraversal(t *testing.T) {
	storage, err := NewDiskStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStorage: %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"", "../x.png", "a/b.png", ".hidden"} {
		if err := storage.Put(ctx, name, bytes.NewReader(pngBytes), 0, ""); !errors.Is(err, errInvalidName) {
			t.Errorf("Put(%q): expected errInvalidName, got %v", name, err)
		}
		if err := storage.Delete(ctx, name); !errors.Is(err, errInvalidName) {
			t.Errorf("Delete(%q): expected errInvalidName, got %v", name, err)
		}
	}
}

func TestDiskStorageURLTrimsSlash(t *testing.T) {
	storage := &DiskStorage{dir: "unused"}
	if got := storage.URL("https://example.com/", "a.png"); got != "https://example.com/uploads/a.png" {
		t.Errorf("unexpected URL: %s", got)
	}
}
