// manager_test.go - Tests for export storage
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starmap-generator/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates export directory", func(t *testing.T) {
		exportDir := filepath.Join(t.TempDir(), "exports", "nested")

		if _, err := NewLocalStore(exportDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(exportDir); os.IsNotExist(err) {
			t.Error("Expected export directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "\x89PNG fake"
		info, err := store.Save("starmap.png", "image/png", "session-1", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "starmap.png" {
			t.Errorf("Expected name 'starmap.png', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.ContentType != "image/png" {
			t.Errorf("Expected content type 'image/png', got %v", info.ContentType)
		}
		if info.SessionID != "session-1" {
			t.Errorf("Expected session 'session-1', got %v", info.SessionID)
		}
		if info.Status != StatusStored {
			t.Errorf("Expected status %q, got %v", StatusStored, info.Status)
		}

		data, err := os.ReadFile(filepath.Join(store.exportDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("removes partial file on read error", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.Save("broken.png", "image/png", "", &failingReader{})
		if err == nil {
			t.Fatal("Expected error from failing reader")
		}

		entries, _ := os.ReadDir(store.exportDir)
		if len(entries) != 0 {
			t.Errorf("Expected no files left behind, got %d", len(entries))
		}
	})
}

func TestLocalStore_SaveBytes(t *testing.T) {
	store := createTestStore(t)

	data := []byte("<svg/>")
	info, err := store.SaveBytes("starmap.svg", "image/svg+xml", "", data)
	if err != nil {
		t.Fatalf("Failed to save bytes: %v", err)
	}

	saved, err := os.ReadFile(filepath.Join(store.exportDir, info.ID))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(saved, data) {
		t.Error("Saved data doesn't match original")
	}
}

func TestLocalStore_GetAndDelete(t *testing.T) {
	store := createTestStore(t)

	info, err := store.SaveBytes("a.png", "image/png", "", []byte("x"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	got, err := store.Get(info.ID)
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Expected ID %s, got %s", info.ID, got.ID)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("Failed to get path: %v", err)
	}

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Failed to delete file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Physical file should be deleted")
	}

	if _, err := store.Get(info.ID); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound on second delete, got %v", err)
	}
	if _, err := store.GetFilePath("missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	t.Run("sorts newest first and limits", func(t *testing.T) {
		store := createTestStore(t)

		ids := make([]string, 5)
		for i := range ids {
			info, err := store.SaveBytes(fmt.Sprintf("file%d.png", i), "image/png", "", []byte("x"))
			if err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
			ids[i] = info.ID
			time.Sleep(5 * time.Millisecond)
		}

		files, err := store.List(3)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 3 {
			t.Fatalf("Expected 3 files, got %d", len(files))
		}
		if files[0].ID != ids[4] {
			t.Error("Expected files to be sorted by creation time descending")
		}

		all, _ := store.List(0)
		if len(all) != 5 {
			t.Errorf("Expected all 5 files with no limit, got %d", len(all))
		}
	})
}

func TestLocalStore_Rename(t *testing.T) {
	store := createTestStore(t)

	info, _ := store.SaveBytes("old.png", "image/png", "", []byte("x"))
	renamed, err := store.Rename(info.ID, "anniversary.png")
	if err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	if renamed.Name != "anniversary.png" {
		t.Errorf("Expected new name, got %s", renamed.Name)
	}

	if _, err := store.Rename("missing", "x"); err == nil {
		t.Error("Expected error renaming unknown file")
	}
}

func TestLocalStore_RegisterFile(t *testing.T) {
	store := createTestStore(t)

	store.RegisterFile(&models.FileInfo{ID: "manual", Name: "manual.png", CreatedAt: time.Now()})

	got, err := store.Get("manual")
	if err != nil {
		t.Fatalf("Expected registered file, got error: %v", err)
	}
	if got.Name != "manual.png" {
		t.Errorf("Expected name manual.png, got %s", got.Name)
	}
}

func TestLocalStore_CleanupOlderThan(t *testing.T) {
	store := createTestStore(t)

	fresh, _ := store.SaveBytes("fresh.png", "image/png", "", []byte("x"))
	old, _ := store.SaveBytes("old.png", "image/png", "", []byte("x"))
	old.CreatedAt = time.Now().Add(-2 * time.Hour)

	removed := store.CleanupOlderThan(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 file removed, got %d", removed)
	}
	if _, err := store.Get(old.ID); err == nil {
		t.Error("Expected old file to be removed")
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Error("Expected fresh file to remain")
	}
	if _, err := os.Stat(filepath.Join(store.exportDir, old.ID)); !os.IsNotExist(err) {
		t.Error("Expected old file removed from disk")
	}
}

func TestLocalStore_ConcurrentAccess(t *testing.T) {
	store := createTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := store.SaveBytes(fmt.Sprintf("f%d.png", i), "image/png", "", []byte("x"))
			if err != nil {
				t.Errorf("save %d: %v", i, err)
				return
			}
			store.Get(info.ID)
			store.List(5)
		}(i)
	}
	wg.Wait()

	files, _ := store.List(100)
	if len(files) != 20 {
		t.Errorf("Expected 20 files, got %d", len(files))
	}
}

type failingReader struct{ reads int }

func (r *failingReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads > 1 {
		return 0, errors.New("read failed")
	}
	return copy(p, "partial"), nil
}
