package inspect_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdftriage/internal/inspect"
	"pdftriage/internal/testsupport"
)

func TestPDFInspectorCountsPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.pdf")
	testsupport.WritePDF(t, path, 3)

	res, err := inspect.NewPDFInspector(10*time.Second).Inspect(context.Background(), path)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if res.PageCount != 3 || res.Encrypted {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPDFInspectorReportsEncryption(t *testing.T) {
	inspector := inspect.NewPDFInspector(10 * time.Second)
	tests := map[string]struct{ userPW, ownerPW string }{
		"owner password only": {"", "owner"},
		"user password":       {"secret", "owner"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			plain := filepath.Join(dir, "plain.pdf")
			locked := filepath.Join(dir, "locked.pdf")
			testsupport.WritePDF(t, plain, 4)
			if err := api.EncryptFile(plain, locked, model.NewAESConfiguration(tc.userPW, tc.ownerPW, 256)); err != nil {
				t.Fatalf("encrypt: %v", err)
			}

			res, err := inspector.Inspect(context.Background(), locked)
			if err != nil {
				t.Fatalf("Inspect returned error: %v", err)
			}
			if !res.Encrypted || res.PageCount != 0 {
				t.Fatalf("expected encrypted result, got %+v", res)
			}
		})
	}
}

func TestPDFInspectorRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	if err := os.WriteFile(path, bytes.Repeat([]byte("not a pdf "), 50), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := inspect.NewPDFInspector(10*time.Second).Inspect(context.Background(), path)
	if err == nil {
		t.Fatalf("expected error for garbage input, got %+v", res)
	}
}

func TestPDFInspectorMissingFile(t *testing.T) {
	_, err := inspect.NewPDFInspector(0).Inspect(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunChildWritesReply(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "two.pdf")
	testsupport.WritePDF(t, good, 2)
	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	if code := inspect.RunChild(context.Background(), &out, good, inspect.ChildLimits{Timeout: 10 * time.Second}); code != inspect.ChildExitOK {
		t.Fatalf("expected exit 0, got %d (%s)", code, out.String())
	}
	var reply map[string]any
	if err := json.Unmarshal(out.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply["page_count"] != float64(2) {
		t.Fatalf("unexpected reply: %v", reply)
	}

	out.Reset()
	if code := inspect.RunChild(context.Background(), &out, bad, inspect.ChildLimits{}); code != inspect.ChildExitInspectFailed {
		t.Fatalf("expected inspect failure exit, got %d", code)
	}
	if err := json.Unmarshal(out.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply["error"] == "" || reply["error"] == nil {
		t.Fatalf("expected error in reply: %v", reply)
	}
}
