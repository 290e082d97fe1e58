package middleware

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/util"
	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Status() int {
	return w.status
}

// 記錄request 請求
// session id 在 SessionMiddleware 之後才有，所以從 response header 補讀
func LoggerMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recoder := &StatusRecoder{
				ResponseWriter: w,
				status:         http.StatusOK,
			}
			start := time.Now()
			next.ServeHTTP(recoder, r)

			ev := logger.Info()
			if recoder.Status() >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("request_id", util.GetRequestIDFromContext(r.Context())).
				Str("session_id", sessionIDFromResponse(w, r)).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", recoder.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request completed")
		})
	}
}
