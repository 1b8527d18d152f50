//go:build !linux && !darwin && !freebsd

package runtime

import (
	"fmt"
	goruntime "runtime"
)

// LoadPlugin is not supported on this platform
func LoadPlugin(_ Options) (Runtime, error) {
	return nil, fmt.Errorf("runtime plugins are not supported on %s", goruntime.GOOS)
}
