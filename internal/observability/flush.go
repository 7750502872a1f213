package observability

import (
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushLogs syncs logger before exit. Metrics are pull-based and need nothing.
// fsync on a terminal or pipe fails with EINVAL or ENOTTY; those are dropped
// because nothing is buffered there.
func FlushLogs(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	err := logger.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return fmt.Errorf("flush logs: %w", err)
}
