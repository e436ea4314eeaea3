package repo

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

const taskColumns = `id, owner_id, list_id, name, description, status, priority, date, deadline,
	estimate, labels, subtasks, reminders, attachments, position, version, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.ListID, &t.Name, &t.Description, &t.Status, &t.Priority, &t.Date, &t.Deadline,
		&t.Estimate, &t.Labels, &t.Subtasks, &t.Reminders, &t.Attachments, &t.Position, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	var created model.Task
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockLabels(ctx, tx, t.OwnerID, t.Labels); err != nil {
			return err
		}
		var err error
		created, err = scanTask(tx.QueryRow(ctx, `
			INSERT INTO tasks (id, owner_id, list_id, name, description, status, priority, date, deadline,
				estimate, labels, subtasks, reminders, attachments, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+taskColumns,
			t.ID, t.OwnerID, t.ListID, t.Name, t.Description, t.Status, t.Priority, t.Date, t.Deadline,
			t.Estimate, t.Labels, t.Subtasks, t.Reminders, t.Attachments, t.Position,
		))
		return err
	})
	return created, mapError(err)
}

// lockLabels takes a share lock on every label of the task for the rest of
// tx. A concurrent label delete holds the row exclusively, so the write
// either waits for it and then fails here, or finishes first and is seen by
// the delete.
func lockLabels(ctx context.Context, tx pgx.Tx, ownerID string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	rows, err := tx.Query(ctx, `
		SELECT id FROM labels WHERE owner_id = $1 AND id = ANY($2) FOR SHARE
	`, ownerID, labels)
	if err != nil {
		return err
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return err
	}
	for _, id := range labels {
		if !slices.Contains(found, id) {
			return unknownLabel(id)
		}
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, id, ownerID string) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, notFound("task", id)
	}
	if err != nil {
		return t, err
	}
	if t.OwnerID != ownerID {
		return model.Task{}, forbidden("task", id)
	}
	return t, nil
}

const taskWhere = `
	WHERE owner_id = $1
	  AND ($2::text = '' OR list_id = $2)
	  AND ($3::text = '' OR $3 = ANY(labels))
	  AND ($4::text IS NULL OR status = $4)
	  AND ($5::text = '' OR name ILIKE '%' || $5 || '%' OR description ILIKE '%' || $5 || '%')`

func (r *TaskRepo) List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, int, error) {
	var status *string
	if q.Status != nil {
		s := string(*q.Status)
		status = &s
	}
	args := []any{ownerID, q.ListID, q.LabelID, status, q.Search}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks`+taskWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks`+taskWhere+`
		ORDER BY list_id, COALESCE(position, 0), created_at DESC, id
		LIMIT $6 OFFSET $7
	`, append(args, q.PageSize, (q.Page-1)*q.PageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, q.PageSize)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	var updated model.Task
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockLabels(ctx, tx, t.OwnerID, t.Labels); err != nil {
			return err
		}
		var err error
		updated, err = scanTask(tx.QueryRow(ctx, `
			UPDATE tasks
			SET list_id = $4, name = $5, description = $6, status = $7, priority = $8, date = $9, deadline = $10,
				estimate = $11, labels = $12, subtasks = $13, reminders = $14, attachments = $15, position = $16,
				version = version + 1, updated_at = now()
			WHERE id = $1 AND owner_id = $2 AND version = $3
			RETURNING `+taskColumns,
			t.ID, t.OwnerID, t.Version,
			t.ListID, t.Name, t.Description, t.Status, t.Priority, t.Date, t.Deadline,
			t.Estimate, t.Labels, t.Subtasks, t.Reminders, t.Attachments, t.Position,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return classify(ctx, tx, "tasks", "task", t.ID, t.OwnerID)
		}
		return err
	})
	if err != nil {
		return t, mapError(err)
	}
	return updated, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id, ownerID string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return classify(ctx, r.pool, "tasks", "task", id, ownerID)
	}
	return nil
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key, ownerID, resourceID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, owner_id, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, key) DO NOTHING
	`, key, ownerID, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key, ownerID string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE owner_id = $1 AND key = $2
	`, ownerID, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", notFound("idempotency key", key)
	}
	return id, err
}

func (r *TaskRepo) GetStats(ctx context.Context, ownerID string, now time.Time) (Stats, error) {
	stats := Stats{ByStatus: make(map[model.Status]int)}

	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*) FROM tasks WHERE owner_id = $1 GROUP BY status
	`, ownerID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status model.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = n
		stats.TotalTasks += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM tasks
		WHERE owner_id = $1 AND deadline < $2 AND status NOT IN ('done', 'archived')
	`, ownerID, now).Scan(&stats.Overdue)
	return stats, err
}
