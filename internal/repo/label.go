package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

const labelSelect = `
	SELECT l.id, l.owner_id, l.name, l.color, l.icon, l.created_at, l.updated_at,
		(SELECT count(*) FROM tasks t WHERE t.owner_id = l.owner_id AND l.id = ANY(t.labels))
	FROM labels l`

type LabelRepo struct {
	pool *pgxpool.Pool
}

func NewLabelRepo(pool *pgxpool.Pool) *LabelRepo {
	return &LabelRepo{pool: pool}
}

func scanLabel(row pgx.Row) (model.Label, error) {
	var l model.Label
	err := row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Color, &l.Icon, &l.CreatedAt, &l.UpdatedAt, &l.TaskCount)
	return l, err
}

func (r *LabelRepo) Create(ctx context.Context, l model.Label) (model.Label, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO labels (id, owner_id, name, color, icon) VALUES ($1, $2, $3, $4, $5)
	`, l.ID, l.OwnerID, l.Name, l.Color, l.Icon)
	if err != nil {
		return l, mapError(err)
	}
	return r.Get(ctx, l.ID, l.OwnerID)
}

func (r *LabelRepo) Get(ctx context.Context, id, ownerID string) (model.Label, error) {
	l, err := scanLabel(r.pool.QueryRow(ctx, labelSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return l, notFound("label", id)
	}
	if err != nil {
		return l, err
	}
	if l.OwnerID != ownerID {
		return model.Label{}, forbidden("label", id)
	}
	return l, nil
}

func (r *LabelRepo) List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM labels WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, labelSelect+`
		WHERE l.owner_id = $1
		ORDER BY l.name, l.id
		LIMIT $2 OFFSET $3
	`, ownerID, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	labels := make([]model.Label, 0, q.PageSize)
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, 0, err
		}
		labels = append(labels, l)
	}
	return labels, total, rows.Err()
}

func (r *LabelRepo) Update(ctx context.Context, l model.Label) (model.Label, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE labels SET name = $3, color = $4, icon = $5, updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`, l.ID, l.OwnerID, l.Name, l.Color, l.Icon)
	if err != nil {
		return l, mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return l, classify(ctx, r.pool, "labels", "label", l.ID, l.OwnerID)
	}
	return r.Get(ctx, l.ID, l.OwnerID)
}

// Delete removes the label in one transaction. A label still referenced by
// tasks is rejected unless force is set, in which case it is detached from
// them first. Returns the number of tasks it was detached from.
func (r *LabelRepo) Delete(ctx context.Context, id, ownerID string, force bool) (int, error) {
	var detached int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// блокируем метку: параллельная запись задачи с этой меткой ждёт нас
		var owner string
		err := tx.QueryRow(ctx, "SELECT owner_id FROM labels WHERE id = $1 FOR UPDATE", id).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("label", id)
		}
		if err != nil {
			return err
		}
		if owner != ownerID {
			return forbidden("label", id)
		}

		var used int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM tasks WHERE owner_id = $1 AND $2 = ANY(labels)
		`, ownerID, id).Scan(&used); err != nil {
			return err
		}
		if used > 0 {
			if !force {
				return labelInUse(used)
			}
			cmd, err := tx.Exec(ctx, `
				UPDATE tasks
				SET labels = array_remove(labels, $2), version = version + 1, updated_at = now()
				WHERE owner_id = $1 AND $2 = ANY(labels)
			`, ownerID, id)
			if err != nil {
				return err
			}
			detached = int(cmd.RowsAffected())
		}

		_, err = tx.Exec(ctx, "DELETE FROM labels WHERE id = $1", id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

func (r *LabelRepo) Conflicts(ctx context.Context, ownerID, name, icon, color, excludeID string) (bool, bool, error) {
	var nameTaken, styleTaken bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM labels WHERE owner_id = $1 AND id <> $5 AND lower(name) = lower($2)),
			EXISTS (SELECT 1 FROM labels WHERE owner_id = $1 AND id <> $5 AND icon = $3 AND lower(color) = lower($4))
	`, ownerID, name, icon, color, excludeID).Scan(&nameTaken, &styleTaken)
	return nameTaken, styleTaken, err
}
