// Package redirect points the OS Desktop known folder at a directory.
package redirect

import (
	"context"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// Redirector changes the Desktop folder and makes Explorer pick it up.
type Redirector struct {
	shell  ports.FolderShell
	settle time.Duration
	logger *logging.Logger
}

// NewRedirector creates a Redirector. settle is the pause between the
// change broadcast and the desktop refresh.
func NewRedirector(shell ports.FolderShell, settle time.Duration, logger *logging.Logger) *Redirector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Redirector{
		shell:  shell,
		settle: settle,
		logger: logger.With("component", "redirector"),
	}
}

// Redirect sets the Desktop folder to path. Only the folder update itself
// can fail the call; broadcast and refresh failures are logged.
func (r *Redirector) Redirect(ctx context.Context, path string) error {
	if err := r.shell.SetDesktopPath(ctx, path); err != nil {
		if domainErrors.CodeOf(err) == domainErrors.CodeInternal {
			err = domainErrors.NewError(domainErrors.CodePlatform, "could not redirect desktop to "+path, err)
		}
		return err
	}

	if err := r.shell.Broadcast(ctx); err != nil {
		logging.LogStepSkipped(ctx, r.logger, "broadcast", err)
	}

	if err := retry.Sleep(ctx, r.settle); err != nil {
		return nil
	}

	if err := r.shell.RefreshDesktop(ctx); err != nil {
		logging.LogStepSkipped(ctx, r.logger, "refresh_desktop", err)
	}

	r.logger.InfoContext(ctx, "desktop redirected", "path", path)
	return nil
}

// CurrentPath returns the live Desktop folder setting.
func (r *Redirector) CurrentPath(ctx context.Context) (string, error) {
	return r.shell.CurrentDesktopPath(ctx)
}
