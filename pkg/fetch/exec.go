package fetch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// run executes an external tool, folding its stderr into the error.
func run(ctx context.Context, log *zap.Logger, name string, args ...string) error {
	log.Debug("running command", zap.String("cmd", name), zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, name, args...)
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("%s %s: %w", name, args[0], execError(err))
	}
	return nil
}

func execError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
