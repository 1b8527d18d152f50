//go:build windows

package env

import (
	"fmt"
	"path/filepath"
)

// RuntimeHome returns the runtime home from LEXT_HOME, or derives it from the location of the executable
func (p *Process) RuntimeHome() (string, error) {
	if home, ok := p.Get(HomeEnv); ok && home != "" {
		return home, nil
	}
	exe, err := p.executable()
	if err != nil {
		return "", fmt.Errorf("can't locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

func defaultTZDir(home string) string {
	return filepath.Join(home, "share", "zoneinfo")
}
