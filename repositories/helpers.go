package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor - общий интерфейс *sql.DB и *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	// ErrProcedureNotFound - процедура сообщила об отсутствии объекта (SQLSTATE P0002).
	ErrProcedureNotFound = errors.New("procedure target not found")
	// ErrProcedureRejected - процедура отклонила операцию по бизнес-правилу (SQLSTATE P0001).
	ErrProcedureRejected = errors.New("procedure rejected operation")
	// ErrSerialization - конфликт сериализации, операцию можно повторить.
	ErrSerialization = errors.New("serialization failure, retry the operation")
)

func checkRowsAffected(result sql.Result) (int64, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected, nil
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// constraintErrors сопоставляет имя ограничения с ошибкой репозитория.
type constraintErrors map[string]error

// mapPQError переводит нарушения ограничений в ошибки из errs.
// Если ограничение неизвестно, возвращается исходная ошибка.
func mapPQError(err error, errs constraintErrors) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505", "23503", "23514": // unique, foreign key, check
		if mapped, ok := errs[pqErr.Constraint]; ok {
			return mapped
		}
	}
	return err
}

// mapProcedureError переводит RAISE EXCEPTION из процедур в ошибки репозитория,
// сохраняя текст сообщения базы.
func mapProcedureError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "P0002":
		return fmt.Errorf("%w: %s", ErrProcedureNotFound, pqErr.Message)
	case "P0001":
		return fmt.Errorf("%w: %s", ErrProcedureRejected, pqErr.Message)
	case "40001", "40P01":
		return fmt.Errorf("%w: %s", ErrSerialization, pqErr.Message)
	}
	return err
}

// withTx выполняет fn в транзакции: rollback при ошибке или панике, иначе commit.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func int64Array(ids []int) interface{} {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return pq.Array(out)
}

func procedureOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	mapped := mapProcedureError(err)
	switch {
	case errors.Is(mapped, ErrProcedureNotFound):
		return "not_found"
	case errors.Is(mapped, ErrProcedureRejected):
		return "rejected"
	case errors.Is(mapped, ErrSerialization):
		return "retryable"
	default:
		return "error"
	}
}
