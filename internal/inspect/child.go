package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// Child exit codes.
const (
	ChildExitOK            = 0
	ChildExitInspectFailed = 2
	ChildExitSetupFailed   = 3
)

// ChildLimits bounds the resources a child may use.
type ChildLimits struct {
	MemoryLimitMB int
	Timeout       time.Duration
}

// RunChild inspects path and writes a one-line JSON reply to w. The return
// value is the process exit code.
func RunChild(ctx context.Context, w io.Writer, path string, limits ChildLimits) int {
	if limits.MemoryLimitMB > 0 {
		if err := applyMemoryLimit(limits.MemoryLimitMB); err != nil {
			writeReply(w, childReply{Error: err.Error()})
			return ChildExitSetupFailed
		}
	}

	res, err := NewPDFInspector(limits.Timeout).Inspect(ctx, path)
	if err != nil {
		writeReply(w, childReply{Error: err.Error()})
		return ChildExitInspectFailed
	}
	writeReply(w, childReply{PageCount: res.PageCount, Encrypted: res.Encrypted})
	return ChildExitOK
}

func applyMemoryLimit(mb int) error {
	limit := uint64(mb) * 1024 * 1024
	if err := unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: limit, Max: limit}); err != nil {
		return fmt.Errorf("set address space limit: %w", err)
	}
	return nil
}

func writeReply(w io.Writer, reply childReply) {
	_ = json.NewEncoder(w).Encode(reply)
}
