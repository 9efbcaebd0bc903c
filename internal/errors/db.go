package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Key (email)=(a@b.fr) already exists.
	reDetailKey = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// ... is still referenced from table "documents".
	reStillReferenced = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// ... is not present in table "prestataires".
	reMissingParent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

var tableLabels = map[string]string{
	"users":        "utilisateur",
	"prestataires": "prestataire",
	"chantiers":    "chantier",
	"relances":     "relance",
	"documents":    "document",
}

// pgMappers covers the SQLSTATEs with a dedicated message. Other codes fall
// through to the class checks in mapPgError.
var pgMappers = map[string]func(*pgconn.PgError) *AppError{
	pgerrcode.UniqueViolation:     uniqueViolation,
	pgerrcode.ForeignKeyViolation: foreignKeyViolation,
	pgerrcode.CheckViolation: func(e *pgconn.PgError) *AppError {
		return &AppError{Code: ErrCodeValidation, Message: "Valeur invalide.", Field: e.ColumnName}
	},
	pgerrcode.NotNullViolation: func(e *pgconn.PgError) *AppError {
		return &AppError{Code: ErrCodeValidation, Message: "Ce champ est obligatoire.", Field: e.ColumnName}
	},
}

// MapDBError turns pgx and Postgres errors into AppErrors with user-facing
// messages. A nil error stays nil and errors it does not recognize come back
// unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	mapped := classifyDBError(err)
	if mapped == nil {
		return err
	}
	mapped.Cause = err
	return mapped
}

func classifyDBError(err error) *AppError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: "La requête a expiré. Veuillez réessayer."}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: "La requête a été annulée."}
	case errors.Is(err, pgx.ErrNoRows):
		return NotFound("Ressource introuvable")
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return databaseUnavailable()
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return nil
}

func mapPgError(pgErr *pgconn.PgError) *AppError {
	if mapper, ok := pgMappers[pgErr.Code]; ok {
		return mapper(pgErr)
	}
	if pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsOperatorIntervention(pgErr.Code) {
		return databaseUnavailable()
	}
	return &AppError{Code: ErrCodeInternal, Message: "Erreur de base de données. Veuillez réessayer."}
}

func databaseUnavailable() *AppError {
	return Unavailable("La base de données est momentanément indisponible.")
}

// uniqueViolation resolves the field from ColumnName, then the Detail text,
// then a "table_field_key" constraint name.
func uniqueViolation(pgErr *pgconn.PgError) *AppError {
	field := pgErr.ColumnName
	if field == "" {
		if m := reDetailKey.FindStringSubmatch(pgErr.Detail); m != nil {
			field = m[1]
		}
	}
	if field == "" {
		field = fieldFromConstraint(pgErr.ConstraintName)
	}
	return &AppError{Code: ErrCodeConflict, Message: "Cette valeur existe déjà.", Field: field}
}

func foreignKeyViolation(pgErr *pgconn.PgError) *AppError {
	msg := "Opération impossible : l'élément est encore référencé."
	switch {
	case reStillReferenced.MatchString(pgErr.Detail):
		table := reStillReferenced.FindStringSubmatch(pgErr.Detail)[1]
		msg = "Suppression impossible : l'élément est utilisé par un " + tableLabel(table) + "."
	case reMissingParent.MatchString(pgErr.Detail):
		table := reMissingParent.FindStringSubmatch(pgErr.Detail)[1]
		msg = "Opération impossible : le " + tableLabel(table) + " référencé n'existe pas."
	case pgErr.TableName != "":
		msg = "Opération impossible : l'élément est lié à un " + tableLabel(pgErr.TableName) + "."
	}
	return &AppError{Code: ErrCodeForeignKey, Message: msg}
}

// fieldFromConstraint returns the middle part of a three-part constraint name.
// Multi-column names and expression indexes such as users_lower_key give "".
func fieldFromConstraint(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return ""
	}
	switch strings.ToLower(parts[1]) {
	case "lower", "upper", "trim", "ltrim", "rtrim", "md5":
		return ""
	}
	return parts[1]
}

func tableLabel(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if label, ok := tableLabels[table]; ok {
		return label
	}
	return strings.ReplaceAll(table, "_", " ")
}
