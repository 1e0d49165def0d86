package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Operation times one service-level unit of work, such as linking two friends
// or ranking films, and logs its outcome when it ends.
type Operation struct {
	name   string
	logger *slog.Logger
	start  time.Time
	now    func() time.Time
}

// StartOperation derives a context whose logger carries the operation name and
// a fresh operation id. Nested operations also record their parent id.
func StartOperation(ctx context.Context, name string) (context.Context, *Operation) {
	if ctx == nil {
		ctx = context.Background()
	}

	id := uuid.NewString()
	logger := FromContext(ctx).With(
		slog.String("operation", name),
		slog.String("operationId", id),
	)
	if parent := OperationIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parentOperationId", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = context.WithValue(ctx, operationIDKey, id)

	return ctx, &Operation{name: name, logger: logger, start: time.Now(), now: time.Now}
}

// End logs the duration of the operation. A non-nil err is logged at warn level.
func (o *Operation) End(err error) {
	if o == nil {
		return
	}
	elapsed := o.now().Sub(o.start)
	if err != nil {
		o.logger.Warn("operation failed", slog.Duration("duration", elapsed), slog.Any("error", err))
		return
	}
	o.logger.Debug("operation completed", slog.Duration("duration", elapsed))
}
