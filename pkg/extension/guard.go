package extension

import (
	"log"
	"runtime/debug"

	"github.com/umputun/lext/pkg/wire"
)

// Guard runs fn at the boundary of an exported call. Errors and panics are logged and reported
// as wire.Error, nothing crosses the boundary.
func Guard(op string, fn func() error) (status wire.Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] %s panicked: %v\n%s", op, r, debug.Stack())
			status = wire.Error
		}
	}()
	if err := fn(); err != nil {
		log.Printf("[WARN] %s failed: %v", op, err)
		return wire.Error
	}
	return wire.Success
}
