package sentinel

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
)

// IsUnavailable reports whether err means the backing store could not be
// reached in time, as opposed to a query or data error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
