package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/cartstore/internal/constants"
	"github.com/RoyceAzure/lab/cartstore/internal/util"
	"github.com/google/uuid"
)

func RequestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//從header內檢查是否有request id
		requestId := r.Header.Get(constants.RequestIDHeader)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		w.Header().Set(constants.RequestIDHeader, requestId)

		next.ServeHTTP(w, r.WithContext(util.WithRequestID(r.Context(), requestId)))
	})
}
