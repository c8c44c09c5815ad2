package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ChildCommand is the hidden subcommand that serves one inspection.
const ChildCommand = "inspect-child"

// childReply is the single JSON line a child writes to stdout.
type childReply struct {
	PageCount uint64 `json:"page_count"`
	Encrypted bool   `json:"encrypted"`
	Error     string `json:"error,omitempty"`
}

// ProcessInspector runs every inspection in a fresh child process so a parser
// crash, hang, or runaway allocation only loses that one file.
type ProcessInspector struct {
	// Command is the argv prefix; the document path is appended.
	Command []string
	Timeout time.Duration
	Env     []string
}

// NewProcessInspector re-executes the running binary's child command.
func NewProcessInspector(timeout time.Duration, memoryLimitMB int) (*ProcessInspector, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	command := []string{exe, ChildCommand}
	if memoryLimitMB > 0 {
		command = append(command, "--memory-limit-mb", strconv.Itoa(memoryLimitMB))
	}
	command = append(command, "--")
	return &ProcessInspector{Command: command, Timeout: timeout}, nil
}

// Inspect runs one child and decodes its reply.
func (p *ProcessInspector) Inspect(ctx context.Context, path string) (Result, error) {
	if len(p.Command) == 0 {
		return Result{}, errors.New("inspector command not configured")
	}
	runCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), p.Command[1:]...), path)
	cmd := exec.CommandContext(runCtx, p.Command[0], args...)
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedBuffer{buf: &stderr, max: 4096}
	cmd.WaitDelay = time.Second
	// Children get their own process group so a terminal interrupt reaches
	// only the parent, which lets in-flight inspections finish while draining.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	runErr := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("%w after %s", ErrInspectTimeout, p.Timeout)
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	reply, decodeErr := decodeReply(stdout.Bytes())
	if decodeErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if runErr != nil {
			return Result{}, fmt.Errorf("%w: %v%s", ErrInspectorCrashed, runErr, suffix(detail))
		}
		return Result{}, fmt.Errorf("%w: %v%s", ErrInspectorCrashed, decodeErr, suffix(detail))
	}
	if reply.Error != "" {
		return Result{}, errors.New(reply.Error)
	}
	if runErr != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInspectorCrashed, runErr)
	}
	return Result{PageCount: reply.PageCount, Encrypted: reply.Encrypted}, nil
}

func decodeReply(out []byte) (childReply, error) {
	var reply childReply
	line := bytes.TrimSpace(out)
	if idx := bytes.LastIndexByte(line, '\n'); idx >= 0 {
		line = line[idx+1:]
	}
	if len(line) == 0 {
		return reply, errors.New("empty reply")
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return reply, fmt.Errorf("decode reply: %w", err)
	}
	return reply, nil
}

func suffix(detail string) string {
	if detail == "" {
		return ""
	}
	return " (" + detail + ")"
}

// limitedBuffer keeps the first max bytes and discards the rest.
type limitedBuffer struct {
	buf *bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}
