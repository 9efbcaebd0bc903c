// Package errors turns errors into low-cardinality labels for metrics and logs.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/target/prestataires-ui/internal/errors"
)

const unknownClass = "unknown"

// Classify returns a short label for err. Known categories come first: context
// errors, application codes, Postgres SQLSTATE classes, cache misses and network
// timeouts. Anything else is labelled by the type of its innermost error.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if class, ok := knownClass(err); ok {
		return class
	}
	return typeLabel(innermost(err))
}

func knownClass(err error) (string, bool) {
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return string(apperrors.ErrCodeTimeout), true
	case goerrors.Is(err, context.Canceled):
		return string(apperrors.ErrCodeCanceled), true
	case goerrors.Is(err, redis.Nil):
		return "cache_miss", true
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code), true
	}
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		// SQLSTATE class only; full codes would blow up tag cardinality.
		return "pg_" + strings.ToLower(pgErr.Code[:2]), true
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) && netErr.Timeout() {
		return string(apperrors.ErrCodeTimeout), true
	}
	return "", false
}

func innermost(err error) error {
	for next := goerrors.Unwrap(err); next != nil; next = goerrors.Unwrap(err) {
		err = next
	}
	return err
}

// typeLabel snake-cases the package-qualified type name, e.g. "errors_errorstring".
func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return unknownClass
	}
	return strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
}
