package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Report summarizes an error for request and job logs.
type Report struct {
	Message string
	Code    Code
	Chain   []string
	// Database is set when a postgres error is somewhere in the chain.
	Database *DatabaseFault
}

// DatabaseFault carries the postgres diagnostics of a failed statement.
type DatabaseFault struct {
	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// Inspect walks err and collects its typed code, wrap chain and any postgres fault.
func Inspect(err error) Report {
	if err == nil {
		return Report{}
	}

	report := Report{Message: err.Error()}
	if typed := As(err); typed != nil {
		report.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		report.Chain = append(report.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	report.Database = databaseFault(err)
	return report
}

// Fields flattens the report into structured log fields.
func (r Report) Fields() map[string]any {
	fields := map[string]any{
		"error":       r.Message,
		"error_code":  r.Code,
		"error_chain": r.Chain,
	}
	if db := r.Database; db != nil {
		fields["pg_code"] = db.SQLState
		fields["pg_constraint"] = db.Constraint
		fields["pg_table"] = db.Table
		fields["pg_column"] = db.Column
		fields["pg_detail"] = db.Detail
		fields["pg_message"] = db.Message
	}
	return fields
}

func databaseFault(err error) *DatabaseFault {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DatabaseFault{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DatabaseFault{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
