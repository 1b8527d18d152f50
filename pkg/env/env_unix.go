//go:build !windows

package env

import "fmt"

// RuntimeHome returns the runtime home from LEXT_HOME, it must be set on unix-like systems
func (p *Process) RuntimeHome() (string, error) {
	home, ok := p.Get(HomeEnv)
	if !ok || home == "" {
		return "", fmt.Errorf("%s is not set", HomeEnv)
	}
	return home, nil
}

func defaultTZDir(_ string) string {
	return "/usr/share/zoneinfo"
}
