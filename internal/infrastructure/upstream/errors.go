// Package upstream talks to the marketplace backend API: the generic request
// forwarder behind the proxy endpoint and the error classification shared
// with the backend client.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// Classify maps a transport error onto the domain sentinels so callers can
// tell a timeout from an unreachable backend.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return err
}
