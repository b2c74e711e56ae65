package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
	"github.com/moodlync/tokencore/internal/pkg/utils"
)

// Recovery turns a handler panic into a 500. Any open ledger transaction was
// already rolled back by WithinTx before the panic reached here.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := map[string]interface{}{
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": GetRequestID(r),
				}
				if userID, ok := GetUserID(r); ok {
					fields["user_id"] = userID
				}
				log.WithFields(fields).Error("Panic recovered")
				metrics.RecordPanic()

				utils.WriteError(w, errors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
