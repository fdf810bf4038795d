package project

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"cutroom/internal/config"
)

// CheckResult reports one preflight probe.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) CheckResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return CheckResult{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return CheckResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Preflight probes the directories a project session writes to. Callers
// should create them first; missing directories fail the check.
func Preflight(cfg *config.Config) []CheckResult {
	return []CheckResult{
		CheckDirectoryAccess("Project directory", cfg.Paths.ProjectDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Preview directory", cfg.Paths.PreviewDir),
	}
}
