//go:build !sqlite

package flashsim

import (
	"fmt"

	"lumenmesh/internal/flash"
)

func openSQLite(_ string) (flash.Primitive, error) {
	return nil, fmt.Errorf("flashsim: sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
