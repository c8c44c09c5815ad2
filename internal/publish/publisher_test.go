package publish

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"pdftriage/internal/logging"
)

type fakeObject struct {
	buf      bytes.Buffer
	closeErr error
	onClose  func(*fakeObject)
}

func (f *fakeObject) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *fakeObject) Close() error {
	if f.onClose != nil {
		f.onClose(f)
	}
	return f.closeErr
}

func writeStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdf_analysis.csv")
	if err := os.WriteFile(path, []byte("file_path\n/docs/a.pdf\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	local := writeStore(t)
	var attempts int
	var uploaded []byte
	var gotMeta ObjectMeta
	factory := func(_ context.Context, bucket, object string, meta ObjectMeta) io.WriteCloser {
		attempts++
		gotMeta = meta
		obj := &fakeObject{}
		if attempts < 3 {
			obj.closeErr = &googleapi.Error{Code: http.StatusServiceUnavailable}
		} else {
			obj.onClose = func(o *fakeObject) { uploaded = o.buf.Bytes() }
		}
		return obj
	}

	p := New("scans", "", time.Second, 3, logging.NewNop(), factory)
	p.InitialBackoff = time.Millisecond

	uri, err := p.Publish(context.Background(), local)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if uri != "gs://scans/pdftriage/pdf_analysis.csv" {
		t.Fatalf("unexpected uri %q", uri)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if string(uploaded) != "file_path\n/docs/a.pdf\n" {
		t.Fatalf("unexpected upload body %q", uploaded)
	}
	if gotMeta.ContentType != "text/csv" {
		t.Fatalf("unexpected content type %q", gotMeta.ContentType)
	}
	want := crc32.Checksum([]byte("file_path\n/docs/a.pdf\n"), crc32.MakeTable(crc32.Castagnoli))
	if gotMeta.CRC32C != want || gotMeta.Size != int64(len("file_path\n/docs/a.pdf\n")) {
		t.Fatalf("unexpected checksum metadata %+v", gotMeta)
	}
}

func TestPublishStopsOnPermanentError(t *testing.T) {
	local := writeStore(t)
	var attempts int
	factory := func(context.Context, string, string, ObjectMeta) io.WriteCloser {
		attempts++
		return &fakeObject{closeErr: &googleapi.Error{Code: http.StatusForbidden}}
	}
	p := New("scans", "custom/out.csv", time.Second, 5, logging.NewNop(), factory)
	p.InitialBackoff = time.Millisecond

	_, err := p.Publish(context.Background(), local)
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("permanent errors must not be retried, got %d attempts", attempts)
	}
}

func TestObjectNameAndContentType(t *testing.T) {
	p := New("b", "", 0, 1, nil, nil)
	if got := p.ObjectName("/tmp/out/results.db"); got != "pdftriage/results.db" {
		t.Fatalf("unexpected object %q", got)
	}
	p.Object = "x/y.csv"
	if got := p.ObjectName("/tmp/out/results.db"); got != "x/y.csv" {
		t.Fatalf("explicit object must win, got %q", got)
	}
	if contentTypeFor("a.sqlite") != "application/vnd.sqlite3" {
		t.Fatal("unexpected sqlite content type")
	}
}

func TestPublishMissingFileIsPermanent(t *testing.T) {
	var attempts int
	factory := func(context.Context, string, string, ObjectMeta) io.WriteCloser {
		attempts++
		return &fakeObject{}
	}
	p := New("b", "", 0, 3, logging.NewNop(), factory)
	if _, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing local file")
	}
	if attempts != 0 {
		t.Fatalf("writer should not be opened for a missing file, got %d", attempts)
	}
}
