package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that path is a directory granting mode
// (a combination of unix.R_OK, unix.W_OK, unix.X_OK).
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, describeMode(mode))}
}

// CheckScanRoot verifies the scan root can be listed.
func CheckScanRoot(path string) Result {
	return CheckDirectoryAccess("Scan root", path, unix.R_OK|unix.X_OK)
}

// CheckOutputLocation verifies the store can be created or appended to. The
// parent directory is created when missing.
func CheckOutputLocation(path string) Result {
	const name = "Output store"

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create directory: %v)", dir, err)}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		dirResult := CheckDirectoryAccess(name, dir, unix.W_OK|unix.X_OK)
		if !dirResult.Passed {
			return dirResult
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	// SQLite also needs to create its journal beside the store.
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (append ok, %d bytes)", path, info.Size())}
}

func describeMode(mode uint32) string {
	out := ""
	if mode&unix.R_OK != 0 {
		out += "read/"
	}
	if mode&unix.W_OK != 0 {
		out += "write/"
	}
	if mode&unix.X_OK != 0 {
		out += "list/"
	}
	if out == "" {
		return "access"
	}
	return out[:len(out)-1]
}
