package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// detailKeys are the details entries worth copying into log lines.
var detailKeys = []string{"reason", "upstream_status", "endpoint", "dependency", "field"}

// LogFields flattens err into structured log fields: the code, the unwrap
// chain, selected details and any postgres diagnostics. The state store reports
// through pgx and migrations through lib/pq.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	fields := map[string]any{"error": err.Error()}

	var chain []string
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	fields["error_chain"] = chain

	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
		fields["retryable"] = MetadataFor(typed.Code()).Retryable
		if dm, ok := typed.Details().(map[string]any); ok {
			for _, key := range detailKeys {
				if v, ok := dm[key]; ok {
					fields[key] = v
				}
			}
		}
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		addPG(fields, pgxErr.Code, pgxErr.TableName, pgxErr.ConstraintName, pgxErr.Message)
	case stdErrors.As(err, &pqErr):
		addPG(fields, string(pqErr.Code), pqErr.Table, pqErr.Constraint, pqErr.Message)
	}
	return fields
}

func addPG(fields map[string]any, code, table, constraint, message string) {
	fields["pg_code"] = code
	fields["pg_message"] = message
	if table != "" {
		fields["pg_table"] = table
	}
	if constraint != "" {
		fields["pg_constraint"] = constraint
	}
}
