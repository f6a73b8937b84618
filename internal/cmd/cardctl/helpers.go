package cardctl

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

// describeInvalid expands field errors into one line each.
func describeInvalid(err error) error {
	fields := apperrors.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	lines := make([]string, 0, len(fields))
	for _, fe := range fields {
		lines = append(lines, "  "+fe.Error())
	}
	return fmt.Errorf("%w:\n%s", err, strings.Join(lines, "\n"))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
