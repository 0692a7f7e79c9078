package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopherai-pdfchat/internal/logging"
	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/session"
	"gopherai-pdfchat/internal/storage"
)

func writeUpload(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestUploadSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	now := time.Now()
	old := now.Add(-2 * time.Hour)
	referenced := writeUpload(t, dir, "aaaaaaaa_kept.pdf", old)
	orphan := writeUpload(t, dir, "bbbbbbbb_orphan.pdf", old)
	fresh := writeUpload(t, dir, "cccccccc_fresh.pdf", now)

	sessions := session.NewMemoryStore(0)
	sess := model.NewSession("s1")
	sess.PutDocument(model.Document{Name: "kept.pdf", StoragePath: referenced})
	if err := sessions.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sweeper := NewUploadSweeper(files, sessions, 0, time.Hour, logging.Nop())
	sweeper.now = func() time.Time { return now }

	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("got %d removed, want 1", removed)
	}
	if !exists(referenced) {
		t.Error("referenced file must survive")
	}
	if exists(orphan) {
		t.Error("orphaned file should be deleted")
	}
	if !exists(fresh) {
		t.Error("file inside the grace period must survive")
	}
}

func TestUploadSweeper_ExpiredSessionReleasesFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	files, _ := storage.NewLocalStore(dir)

	now := time.Now()
	path := writeUpload(t, dir, "aaaaaaaa_a.pdf", now.Add(-2*time.Hour))

	sessions := session.NewMemoryStore(time.Millisecond)
	sess := model.NewSession("s1")
	sess.PutDocument(model.Document{Name: "a.pdf", StoragePath: path})
	if err := sessions.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	sweeper := NewUploadSweeper(files, sessions, 0, time.Hour, logging.Nop())
	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if removed != 1 || exists(path) {
		t.Errorf("file of expired session should be deleted (removed=%d)", removed)
	}
}

type failingPaths struct{}

func (failingPaths) ReferencedPaths(context.Context) (map[string]struct{}, error) {
	return nil, errors.New("store down")
}

func TestUploadSweeper_StoreErrorDeletesNothing(t *testing.T) {
	dir := t.TempDir()
	files, _ := storage.NewLocalStore(dir)
	path := writeUpload(t, dir, "aaaaaaaa_a.pdf", time.Now().Add(-48*time.Hour))

	sweeper := NewUploadSweeper(files, failingPaths{}, 0, time.Hour, logging.Nop())
	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !exists(path) {
		t.Error("no file may be deleted when referenced paths are unknown")
	}
}

func TestUploadSweeper_StartClose(t *testing.T) {
	dir := t.TempDir()
	files, _ := storage.NewLocalStore(dir)
	path := writeUpload(t, dir, "aaaaaaaa_a.pdf", time.Now().Add(-48*time.Hour))

	sweeper := NewUploadSweeper(files, session.NewMemoryStore(0), 5*time.Millisecond, time.Hour, logging.Nop())
	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for exists(path) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sweeper.Close()

	if exists(path) {
		t.Error("background sweep did not delete the orphaned file")
	}
}
