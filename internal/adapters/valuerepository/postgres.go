package valuerepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/autolru/internal/domain"
	"github.com/Amund211/autolru/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("autolru/valuerepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

type dbValuesEntry struct {
	Key       string    `db:"key"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Postgres) GetValue(ctx context.Context, key string) (domain.Value, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetValue")
	defer span.End()

	var entry dbValuesEntry
	err := p.db.GetContext(ctx, &entry, fmt.Sprintf(`SELECT
		key, data, updated_at
		FROM %s."values"
		WHERE key = $1`,
		pq.QuoteIdentifier(p.schema),
	),
		key,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No entry found
			return domain.Value{}, domain.ErrValueNotFound
		}
		err := fmt.Errorf("failed to select values entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key": key,
		})
		return domain.Value{}, fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
	}

	return domain.Value{
		Key:       entry.Key,
		Data:      entry.Data,
		UpdatedAt: entry.UpdatedAt,
	}, nil
}

func (p *Postgres) StoreValue(ctx context.Context, value domain.Value) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreValue")
	defer span.End()

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": p.schema,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO "values"
		(key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		value.Key,
		value.Data,
		value.UpdatedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert values entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key":       value.Key,
			"updatedAt": value.UpdatedAt.Format(time.RFC3339),
		})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}

func (p *Postgres) DeleteValue(ctx context.Context, key string) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.DeleteValue")
	defer span.End()

	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`
			DELETE FROM %s."values"
			WHERE key = $1`,
		pq.QuoteIdentifier(p.schema),
	),
		key,
	)
	if err != nil {
		err := fmt.Errorf("failed to delete value: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key": key,
		})
		return err
	}

	return nil
}

var _ ValueRepository = (*Postgres)(nil)
