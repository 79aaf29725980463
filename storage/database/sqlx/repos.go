package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// advisory lock classes; first int4 key of pg_try_advisory_xact_lock.
const (
	lockClassOwnerCalendar = 1
	lockClassCohort        = 2
)

// tryAdvisoryXactLock takes a transaction-scoped advisory lock without
// blocking; core.ErrOperationInProgress when another transaction holds it.
func tryAdvisoryXactLock(ctx context.Context, exec core.DBExecutor, class int, key string) error {
	var acquired bool
	if err := exec.GetContext(ctx, &acquired, "SELECT pg_try_advisory_xact_lock($1, hashtext($2))", class, key); err != nil {
		return errors.Wrap(err, "taking advisory lock")
	}
	if !acquired {
		return core.ErrOperationInProgress
	}
	return nil
}
