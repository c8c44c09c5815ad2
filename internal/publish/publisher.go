package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"pdftriage/internal/logging"
)

// ObjectMeta describes the object being written.
type ObjectMeta struct {
	ContentType string
	// CRC32C is the Castagnoli checksum of the full content.
	CRC32C uint32
	Size   int64
}

// WriterFactory opens a destination object for writing.
type WriterFactory func(ctx context.Context, bucket, object string, meta ObjectMeta) io.WriteCloser

// ErrStoreChanged means the local store was modified while it was uploaded.
var ErrStoreChanged = errors.New("local store changed during upload")

// Publisher uploads a local file to bucket/object with retries.
type Publisher struct {
	Bucket         string
	Object         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	Logger         *slog.Logger

	newWriter WriterFactory
}

// NewGCSPublisher returns a publisher backed by a Cloud Storage client.
// Credentials come from the environment (Application Default Credentials).
func NewGCSPublisher(ctx context.Context, bucket, object string, timeout time.Duration, maxAttempts int, logger *slog.Logger) (*Publisher, io.Closer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage client: %w", err)
	}
	factory := func(ctx context.Context, bucket, object string, meta ObjectMeta) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = meta.ContentType
		w.CRC32C = meta.CRC32C
		w.SendCRC32C = true
		return w
	}
	return New(bucket, object, timeout, maxAttempts, logger, factory), client, nil
}

// New builds a publisher over an arbitrary writer factory.
func New(bucket, object string, timeout time.Duration, maxAttempts int, logger *slog.Logger, factory WriterFactory) *Publisher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Publisher{
		Bucket:         bucket,
		Object:         object,
		Timeout:        timeout,
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Second,
		Logger:         logging.NewComponentLogger(logger, "publish"),
		newWriter:      factory,
	}
}

// ObjectName returns the destination object for localPath.
func (p *Publisher) ObjectName(localPath string) string {
	if p.Object != "" {
		return p.Object
	}
	return path.Join("pdftriage", filepath.Base(localPath))
}

// Publish uploads localPath and returns the gs:// URI on success.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	object := p.ObjectName(localPath)
	uri := fmt.Sprintf("gs://%s/%s", p.Bucket, object)
	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := p.uploadOnce(ctx, localPath, object)
		if err == nil {
			p.Logger.Info("store published", logging.String("uri", uri), logging.Int("attempt", attempt))
			return uri, nil
		}
		lastErr = err
		if isPermanent(err) || attempt == p.MaxAttempts {
			break
		}
		p.Logger.Warn("upload failed, will retry",
			logging.String("uri", uri),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", p.MaxAttempts),
			logging.Duration("backoff", backoff),
			logging.Error(err),
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("publish %s: %w", uri, lastErr)
}

func (p *Publisher) uploadOnce(ctx context.Context, localPath, object string) error {
	sum, size, err := fileChecksum(localPath)
	if err != nil {
		return err
	}
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	writeCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	meta := ObjectMeta{ContentType: contentTypeFor(localPath), CRC32C: sum, Size: size}
	w := p.newWriter(writeCtx, p.Bucket, object, meta)
	copied, err := io.Copy(w, file)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to object: %w", err)
	}
	if copied != size {
		_ = w.Close()
		return fmt.Errorf("%w: read %d of %d bytes", ErrStoreChanged, copied, size)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func contentTypeFor(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".csv":
		return "text/csv"
	case ".db", ".sqlite", ".sqlite3":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

// isPermanent reports client errors that retrying cannot fix.
func isPermanent(err error) bool {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return false
		}
		return apiErr.Code >= 400 && apiErr.Code < 500
	}
	return false
}
