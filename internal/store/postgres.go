package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("store")

// Querier abstracts pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres is a Store backed by the plans table.
type Postgres struct {
	db     Querier
	logger *zap.Logger
	now    func() time.Time
}

// NewPool creates a pgx pool for dsn and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}

// NewPostgres returns a Store that runs its statements on db.
func NewPostgres(db Querier, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger, now: time.Now}
}

const selectColumns = `SELECT id::text, data, created_at, updated_at FROM plans`

// Save inserts c under a new id.
func (p *Postgres) Save(ctx context.Context, c plan.Configuration) (Record, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Save")
	defer span.End()

	data, err := json.Marshal(c)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode plan: %w", err)
	}

	now := p.now().UTC()
	r := Record{ID: uuid.NewString(), Plan: c.Clone(), CreatedAt: now, UpdatedAt: now}
	span.SetAttributes(attribute.String("plan.id", r.ID))

	_, err = p.db.Exec(ctx, `
		INSERT INTO plans (id, client, project, unit, price, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, c.Client, c.Project, c.Unit, c.Price, data, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return Record{}, p.fail(span, "store.Postgres.Save", fmt.Errorf("store: insert plan: %w", err))
	}
	return r, nil
}

// Update replaces the plan stored under id, keeping its creation time.
func (p *Postgres) Update(ctx context.Context, id string, c plan.Configuration) (Record, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Update")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	data, err := json.Marshal(c)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode plan: %w", err)
	}

	r := Record{ID: id, Plan: c.Clone()}
	err = p.db.QueryRow(ctx, `
		UPDATE plans SET client = $2, project = $3, unit = $4, price = $5, data = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING created_at, updated_at`,
		id, c.Client, c.Project, c.Unit, c.Price, data, p.now().UTC()).Scan(&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, p.fail(span, "store.Postgres.Update", fmt.Errorf("store: update plan: %w", err))
	}
	return r, nil
}

// Get returns the plan stored under id.
func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Get")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	r, err := scanRecord(p.db.QueryRow(ctx, selectColumns+` WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, p.fail(span, "store.Postgres.Get", fmt.Errorf("store: get plan: %w", err))
	}
	return r, nil
}

// Delete marks the plan stored under id as deleted.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	now := p.now().UTC()
	tag, err := p.db.Exec(ctx, `UPDATE plans SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return p.fail(span, "store.Postgres.Delete", fmt.Errorf("store: delete plan: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of plans matching q.
func (p *Postgres) List(ctx context.Context, q Query) (Page, error) {
	ctx, span := tracer.Start(ctx, "Postgres.List")
	defer span.End()

	q = q.Normalize()
	span.SetAttributes(
		attribute.String("list.sort", string(q.Sort)),
		attribute.String("list.direction", string(q.Direction)),
		attribute.Int("list.page_size", q.PageSize),
	)

	var after *cursor
	if strings.TrimSpace(q.Cursor) != "" {
		c, err := decodeCursor(q.Cursor, q.Sort)
		if err != nil {
			return Page{}, err
		}
		after = &c
	}

	sql, args := buildListQuery(q, after)
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, p.fail(span, "store.Postgres.List", fmt.Errorf("store: list plans: %w", err))
	}
	defer rows.Close()

	records := make([]Record, 0, q.PageSize)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return Page{}, p.fail(span, "store.Postgres.List", fmt.Errorf("store: scan plan: %w", err))
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, p.fail(span, "store.Postgres.List", fmt.Errorf("store: list plans: %w", err))
	}
	return paginate(records, q), nil
}

func (p *Postgres) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.Error("postgres store failure",
		zap.String("op", op),
		zap.Error(err),
	)
	return err
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r    Record
		data []byte
	)
	if err := row.Scan(&r.ID, &data, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(data, &r.Plan); err != nil {
		return Record{}, fmt.Errorf("decode plan %s: %w", r.ID, err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

var sortColumns = map[SortField]string{
	SortClient:    "lower(client)",
	SortProject:   "lower(project)",
	SortPrice:     "price",
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
}

// buildListQuery renders the keyset-paginated listing statement for a
// normalized query.
func buildListQuery(q Query, after *cursor) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(selectColumns)
	sb.WriteString(` WHERE deleted_at IS NULL`)
	if q.ClientPrefix != "" {
		sb.WriteString(` AND lower(client) LIKE ` + arg(likePrefix(q.ClientPrefix)))
	}
	if q.ProjectPrefix != "" {
		sb.WriteString(` AND lower(project) LIKE ` + arg(likePrefix(q.ProjectPrefix)))
	}

	column := sortColumns[q.Sort]
	op, dir := ">", "ASC"
	if q.Direction == Desc {
		op, dir = "<", "DESC"
	}

	if after != nil {
		var key any
		switch q.Sort {
		case SortClient, SortProject:
			key = after.Text
		case SortPrice:
			key = after.Number
		default:
			key = after.Time
		}
		sb.WriteString(fmt.Sprintf(` AND (%s, id) %s (%s, %s::uuid)`, column, op, arg(key), arg(after.ID)))
	}

	sb.WriteString(fmt.Sprintf(` ORDER BY %s %s, id %s LIMIT %s`, column, dir, dir, arg(q.PageSize)))
	return sb.String(), args
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(prefix))
	return escaped + "%"
}
