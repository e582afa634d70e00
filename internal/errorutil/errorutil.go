// Package errorutil holds the small set of error helpers shared across snsauth.
package errorutil

import "fmt"

// Wrap annotates err with msg. It returns nil when err is nil so it can be
// used directly in return statements.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Join wraps cause with a sentinel kind so that both errors.Is(err, kind) and
// errors.Is(err, cause) hold.
func Join(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
