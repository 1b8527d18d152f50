// Package env resolves and validates the environment a runtime needs before any script executes:
// runtime home, timezone database directory and library search paths.
// Platform differences live in Process.RuntimeHome and defaultTZDir, one file per platform.
package env

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/stringutils"
)

// environment variables used by the extension
const (
	HomeEnv     = "LEXT_HOME" // runtime home, install root
	TZDirEnv    = "TZDIR"     // timezone database directory
	ZoneInfoEnv = "ZONEINFO"  // timezone database location used by the go time package
)

//go:generate moq -out mocks/provider.go -pkg mocks -skip-ensure -fmt goimports . Provider

// Provider gives access to environment variables and resolves the runtime home
type Provider interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	RuntimeHome() (string, error)
}

// Paths is the resolved environment of a runtime
type Paths struct {
	Home      string
	TZDir     string
	Libraries []string // private library paths first, then public ones
}

// Process is the Provider backed by the process environment
type Process struct {
	executable func() (string, error)
}

// NewProcess makes a Provider for the environment of the current process
func NewProcess() *Process {
	return &Process{executable: os.Executable}
}

// Get returns the value of the environment variable
func (p *Process) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Set sets the environment variable
func (p *Process) Set(key, value string) error {
	return os.Setenv(key, value)
}

// CheckAndSet resolves runtime home, timezone database and library paths and exports them
// to the environment. Public and private library paths are lists separated by os.PathListSeparator,
// paths that don't exist are skipped.
func CheckAndSet(p Provider, public, private string) (Paths, error) {
	home, err := p.RuntimeHome()
	if err != nil {
		return Paths{}, fmt.Errorf("can't resolve runtime home: %w", err)
	}
	if !fileutils.IsDir(home) {
		return Paths{}, fmt.Errorf("runtime home %q is not a directory", home)
	}
	if err = p.Set(HomeEnv, home); err != nil {
		return Paths{}, fmt.Errorf("can't set %s: %w", HomeEnv, err)
	}

	tzDir, err := resolveTZDir(p, home)
	if err != nil {
		return Paths{}, err
	}

	res := Paths{Home: home, TZDir: tzDir}
	res.Libraries = libraryPaths(private, public)
	log.Printf("[DEBUG] runtime home %s, tz dir %q, libraries %v", res.Home, res.TZDir, res.Libraries)
	return res, nil
}

// resolveTZDir uses TZDIR if set, or the platform default if it exists. The result is exported
// as both TZDIR and ZONEINFO. Missing default is not an error, go can work with embedded tz data.
func resolveTZDir(p Provider, home string) (string, error) {
	tzDir, ok := p.Get(TZDirEnv)
	if ok && tzDir != "" {
		if !fileutils.IsDir(tzDir) {
			return "", fmt.Errorf("%s %q is not a directory", TZDirEnv, tzDir)
		}
	} else {
		tzDir = defaultTZDir(home)
		if !fileutils.IsDir(tzDir) {
			log.Printf("[WARN] no timezone database in %s", tzDir)
			return "", nil
		}
	}

	if err := p.Set(TZDirEnv, tzDir); err != nil {
		return "", fmt.Errorf("can't set %s: %w", TZDirEnv, err)
	}
	if err := p.Set(ZoneInfoEnv, tzDir); err != nil {
		return "", fmt.Errorf("can't set %s: %w", ZoneInfoEnv, err)
	}
	return tzDir, nil
}

func libraryPaths(lists ...string) []string {
	var res []string
	for _, list := range lists {
		for _, dir := range strings.Split(list, string(os.PathListSeparator)) {
			if stringutils.IsBlank(dir) {
				continue
			}
			dir = filepath.Clean(strings.TrimSpace(dir))
			if !fileutils.IsDir(dir) {
				log.Printf("[WARN] library path %s not found, skipped", dir)
				continue
			}
			res = append(res, dir)
		}
	}
	return stringutils.DeDup(res)
}
