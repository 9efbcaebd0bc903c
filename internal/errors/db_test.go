package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "wrapped deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), wantCode: ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("get prestataire: %w", pgx.ErrNoRows))
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key", ColumnName: "email"},
			wantField: "email",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_pkey",
				Detail:         `Key (id)=(7d0c) already exists.`,
			},
			wantField: "id",
		},
		{
			name:      "constraint name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantField: "email",
		},
		{
			name:      "expression index",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_lower_key"},
			wantField: "",
		},
		{
			name:      "multi-column constraint",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "relances_prestataire_date_key"},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Errorf("MapDBError() should be Conflict, got %v", GetCode(err))
			}
			if field := GetField(err); field != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", field, tt.wantField)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantContain string
	}{
		{
			name: "parent still referenced",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(p-001) is still referenced from table "documents".`,
			},
			wantContain: "document",
		},
		{
			name: "missing parent",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (prestataire_id)=(p-999) is not present in table "prestataires".`,
			},
			wantContain: "prestataire référencé",
		},
		{
			name:        "table name fallback",
			pgErr:       &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "chantier_assignments"},
			wantContain: "chantier assignments",
		},
		{
			name:        "no metadata",
			pgErr:       &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantContain: "encore référencé",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsAppError(err, ErrCodeForeignKey) {
				t.Fatalf("expected ForeignKey, got %v", GetCode(err))
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || !strings.Contains(appErr.Message, tt.wantContain) {
				t.Errorf("message %q does not contain %q", appErr.Message, tt.wantContain)
			}
		})
	}
}

func TestMapDBError_ValidationViolations(t *testing.T) {
	for _, code := range []string{pgerrcode.NotNullViolation, pgerrcode.CheckViolation} {
		err := MapDBError(&pgconn.PgError{Code: code, ColumnName: "status"})
		if !IsAppError(err, ErrCodeValidation) {
			t.Errorf("code %s: expected Validation, got %v", code, GetCode(err))
		}
		if GetField(err) != "status" {
			t.Errorf("code %s: expected field status, got %q", code, GetField(err))
		}
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if GetCode(err) != ErrCodeInternal {
		t.Errorf("expected Internal, got %v", GetCode(err))
	}
}

func TestMapDBError_Unavailable(t *testing.T) {
	for _, code := range []string{pgerrcode.ConnectionFailure, pgerrcode.AdminShutdown} {
		err := MapDBError(&pgconn.PgError{Code: code})
		if !IsUnavailable(err) {
			t.Errorf("code %s: expected Unavailable, got %v", code, GetCode(err))
		}
	}
}

func TestMapDBError_KeepsCause(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"}
	err := MapDBError(fmt.Errorf("insert user: %w", pgErr))
	var got *pgconn.PgError
	if !errors.As(err, &got) || got != pgErr {
		t.Errorf("expected the PgError to stay reachable, got %v", err)
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("plain")
	if err := MapDBError(orig); !errors.Is(err, orig) || GetCode(err) != "" {
		t.Errorf("expected original error back, got %v", err)
	}
}
