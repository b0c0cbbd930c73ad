package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/trademill/wholesale-api/internal/domain/auth"
)

// APIKeyHeader carries the caller's raw API key on mutating endpoints.
const APIKeyHeader = "api_key"

// RequireAPIKey returns middleware that authenticates requests by API key.
// The raw key is hashed with the server pepper and looked up; a lookup miss
// and a hash mismatch are indistinguishable to the caller.
func RequireAPIKey(keys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(APIKeyHeader)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "api key required")
				return
			}

			hash := auth.HashKey(raw, pepper)
			info, err := keys.FindByHash(r.Context(), hash)
			if err != nil {
				if errors.Is(err, auth.ErrKeyNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid api key")
					return
				}
				internalError(w, r, errors.Wrap(err, "find api key"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(info.KeyHash), []byte(hash)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
