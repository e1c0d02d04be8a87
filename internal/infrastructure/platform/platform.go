// Package platform provides the OS drivers behind the shell, folder,
// virtual desktop and keyboard ports. The native implementation targets
// Windows; on other systems every driver reports ErrUnsupportedPlatform.
package platform

import (
	"fmt"
	"runtime"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
)

// unsupported wraps ErrUnsupportedPlatform with the operation name.
func unsupported(op string) error {
	return domainErrors.NewError(
		domainErrors.CodeUnsupported,
		fmt.Sprintf("%s is not available on %s", op, runtime.GOOS),
		domainErrors.ErrUnsupportedPlatform,
	)
}

// platformError wraps a native failure as a PLATFORM error.
func platformError(op string, err error) error {
	return domainErrors.NewError(domainErrors.CodePlatform, op+" failed", err)
}
