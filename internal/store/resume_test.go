package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pdftriage/internal/logging"
	"pdftriage/internal/store"
)

func TestLoadResumeIndexMissingStore(t *testing.T) {
	idx := store.LoadResumeIndex(filepath.Join(t.TempDir(), "none.csv"), "", true, logging.NewNop())
	if idx.Len() != 0 || idx.Contains("/docs/a.pdf") {
		t.Fatal("expected empty index for missing store")
	}
}

func TestLoadResumeIndexFromStores(t *testing.T) {
	for _, name := range []string{"out.csv", "out.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			w, err := store.Open(path, "", "r")
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := w.WriteBatch(context.Background(), sampleRecords()); err != nil {
				t.Fatalf("WriteBatch: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			idx := store.LoadResumeIndex(path, "", true, logging.NewNop())
			if idx.Len() != 3 {
				t.Fatalf("expected 3 indexed paths, got %d", idx.Len())
			}
			if !idx.Contains("/DOCS/C.pdf") {
				t.Fatal("expected case-folded match")
			}
			if !idx.Contains("/docs/./a.pdf") {
				t.Fatal("expected cleaned path match")
			}
			if idx.Contains("/docs/d.pdf") {
				t.Fatal("unexpected match")
			}
		})
	}
}

func TestLoadResumeIndexSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.csv")
	content := "file_path,page_count\n/docs/a.pdf,3\n/docs/b.pdf\n/docs/c.pdf,4\n\"/docs/d.pdf,4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx := store.LoadResumeIndex(path, "", true, logging.NewNop())
	if idx.Len() != 2 || !idx.Contains("/docs/a.pdf") || !idx.Contains("/docs/c.pdf") {
		t.Fatalf("expected the two well-formed rows indexed, got %d", idx.Len())
	}
	if idx.Contains("/docs/b.pdf") {
		t.Fatal("short row must not be indexed")
	}
}

func TestLoadResumeIndexUnreadableHeaderIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	if err := os.WriteFile(path, []byte("name,pages\n/docs/a.pdf,3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx := store.LoadResumeIndex(path, "", true, logging.NewNop())
	if idx.Len() != 0 {
		t.Fatalf("store without a path column must yield an empty index, got %d", idx.Len())
	}
}

func TestResumeIndexCaseSensitive(t *testing.T) {
	idx := store.NewResumeIndex([]string{"/Docs/A.pdf"}, false)
	if idx.Contains("/docs/a.pdf") {
		t.Fatal("case-sensitive index must not fold")
	}
	if !idx.Contains("/Docs/A.pdf") {
		t.Fatal("expected exact match")
	}
	var nilIdx *store.ResumeIndex
	if nilIdx.Contains("/x") || nilIdx.Len() != 0 {
		t.Fatal("nil index should be empty")
	}
}
