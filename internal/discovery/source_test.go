package discovery_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"pdftriage/internal/discovery"
	"pdftriage/internal/logging"
)

func touch(t *testing.T, fsys afero.Fs, path string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := afero.WriteFile(fsys, path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func collect(ctx context.Context, src *discovery.Source) []string {
	var out []string
	for path := range src.Paths(ctx) {
		out = append(out, path)
	}
	return out
}

func TestPathsMatchesExtensionCaseInsensitively(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/data/a.pdf")
	touch(t, fsys, "/data/B.PDF")
	touch(t, fsys, "/data/nested/deeper/c.Pdf")
	touch(t, fsys, "/data/notes.txt")
	touch(t, fsys, "/data/pdf")

	src := discovery.New(fsys, "/data", discovery.Options{Extensions: []string{".pdf"}}, logging.NewNop())
	got := collect(context.Background(), src)
	slices.Sort(got)

	want := []string{"/data/B.PDF", "/data/a.pdf", "/data/nested/deeper/c.Pdf"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected paths:\n got %v\nwant %v", got, want)
	}
	if src.Emitted() != 3 {
		t.Fatalf("expected 3 emitted, got %d", src.Emitted())
	}
}

func TestPathsDedupsCaseVariants(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/data/Report.pdf")
	touch(t, fsys, "/data/report.pdf")

	folded := discovery.New(fsys, "/data", discovery.Options{Extensions: []string{"pdf"}, CaseInsensitive: true}, logging.NewNop())
	if got := collect(context.Background(), folded); len(got) != 1 {
		t.Fatalf("expected one path after case folding, got %v", got)
	}
	if folded.Duplicates() != 1 {
		t.Fatalf("expected one duplicate, got %d", folded.Duplicates())
	}

	exact := discovery.New(fsys, "/data", discovery.Options{Extensions: []string{"pdf"}}, logging.NewNop())
	if got := collect(context.Background(), exact); len(got) != 2 {
		t.Fatalf("expected both paths without folding, got %v", got)
	}
}

func TestPathsConfigurableExtensions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/docs/a.doc")
	touch(t, fsys, "/docs/b.pdf")

	src := discovery.New(fsys, "/docs", discovery.Options{Extensions: []string{".doc"}}, logging.NewNop())
	got := collect(context.Background(), src)
	if !slices.Equal(got, []string{"/docs/a.doc"}) {
		t.Fatalf("unexpected paths: %v", got)
	}
}

type lockedFs struct {
	afero.Fs
	locked string
}

func (l lockedFs) Open(name string) (afero.File, error) {
	if name == l.locked {
		return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return l.Fs.Open(name)
}

func TestPathsSkipsUnreadableSubtree(t *testing.T) {
	base := afero.NewMemMapFs()
	touch(t, base, "/data/ok/a.pdf")
	touch(t, base, "/data/private/secret.pdf")
	touch(t, base, "/data/z.pdf")

	src := discovery.New(lockedFs{Fs: base, locked: "/data/private"}, "/data", discovery.Options{Extensions: []string{".pdf"}}, logging.NewNop())
	got := collect(context.Background(), src)
	slices.Sort(got)

	if !slices.Equal(got, []string{"/data/ok/a.pdf", "/data/z.pdf"}) {
		t.Fatalf("unexpected paths: %v", got)
	}
	if src.Skipped() != 1 {
		t.Fatalf("expected one skipped subtree, got %d", src.Skipped())
	}
	if src.Err() != nil {
		t.Fatalf("subtree failure must not be a root error: %v", src.Err())
	}
}

func TestPathsMissingRootReportsErr(t *testing.T) {
	src := discovery.New(afero.NewMemMapFs(), "/absent", discovery.Options{}, logging.NewNop())
	if got := collect(context.Background(), src); len(got) != 0 {
		t.Fatalf("expected no paths, got %v", got)
	}
	if src.Err() == nil {
		t.Fatal("expected root error")
	}
}

func TestPathsStopsWhenConsumerStops(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, name := range []string{"a", "b", "c", "d"} {
		touch(t, fsys, "/data/"+name+".pdf")
	}
	src := discovery.New(fsys, "/data", discovery.Options{}, logging.NewNop())
	for range src.Paths(context.Background()) {
		break
	}
	if src.Emitted() != 1 {
		t.Fatalf("expected enumeration to pause after one pull, emitted %d", src.Emitted())
	}
}

func TestPathsHonoursCancellation(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/data/a.pdf")
	touch(t, fsys, "/data/b.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	src := discovery.New(fsys, "/data", discovery.Options{}, logging.NewNop())
	var got []string
	for path := range src.Paths(ctx) {
		got = append(got, path)
		cancel()
	}
	if len(got) != 1 {
		t.Fatalf("expected enumeration to stop after cancel, got %v", got)
	}
}

type setIndex map[string]bool

func (s setIndex) Contains(path string) bool { return s[path] }

func TestFilterResumed(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/data/a.pdf")
	touch(t, fsys, "/data/b.pdf")
	touch(t, fsys, "/data/c.pdf")

	src := discovery.New(fsys, "/data", discovery.Options{}, logging.NewNop())
	var skipped []string
	seq := discovery.FilterResumed(src.Paths(context.Background()), setIndex{"/data/b.pdf": true}, func(p string) {
		skipped = append(skipped, p)
	})
	var got []string
	for path := range seq {
		got = append(got, path)
	}
	slices.Sort(got)
	if !slices.Equal(got, []string{"/data/a.pdf", "/data/c.pdf"}) {
		t.Fatalf("unexpected filtered paths: %v", got)
	}
	if !slices.Equal(skipped, []string{"/data/b.pdf"}) {
		t.Fatalf("unexpected skipped paths: %v", skipped)
	}
}
