package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

// OwnerHeader carries the id of the user every request acts for.
const OwnerHeader = "X-User-ID"

type ctxKey struct{}

// RequireOwner rejects requests without an owner and stores it in the context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			respond.Error(w, r, http.StatusUnauthorized, string(apperr.CodeUnauthorized), "missing "+OwnerHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, owner)))
	})
}

func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ctxKey{}).(string)
	return owner
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, string(apperr.CodeValidation), "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, r, http.StatusBadRequest, string(apperr.CodeValidation), fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func handleErrors(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Code != apperr.CodeInternal {
		respond.Error(w, r, appErr.Code.StatusCode(), string(appErr.Code), appErr.Message)
		return
	}
	logger.Error("internal error",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	respond.Error(w, r, http.StatusInternalServerError, string(apperr.CodeInternal), "internal error")
}
