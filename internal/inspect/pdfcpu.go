package inspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFInspector inspects documents in-process with pdfcpu.
type PDFInspector struct {
	// Timeout bounds a single inspection. A timed-out parse keeps running in
	// the background until pdfcpu returns; use ProcessInspector to reclaim it.
	Timeout time.Duration
}

// NewPDFInspector returns an inspector using relaxed validation.
func NewPDFInspector(timeout time.Duration) *PDFInspector {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFInspector{Timeout: timeout}
}

// Inspect reads path and reports its page count and encryption state.
func (p *PDFInspector) Inspect(ctx context.Context, path string) (Result, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := readDocument(path)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w after %s", ErrInspectTimeout, p.Timeout)
		}
		return Result{}, ctx.Err()
	}
}

func readDocument(path string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadAndValidate(file, conf)
	if err != nil {
		if isPasswordError(err) {
			return Result{Encrypted: true}, nil
		}
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}
	if pdfCtx.XRefTable.Encrypt != nil {
		return Result{Encrypted: true}, nil
	}
	if pdfCtx.PageCount < 0 {
		return Result{}, fmt.Errorf("read pdf: invalid page count %d", pdfCtx.PageCount)
	}
	return Result{PageCount: uint64(pdfCtx.PageCount)}, nil
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
