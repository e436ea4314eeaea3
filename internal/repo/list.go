package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

// Counts are derived per read from the tasks table.
const listSelect = `
	SELECT l.id, l.owner_id, l.name, l.color, l.emoji, l.is_favorite, l.position, l.version,
		l.created_at, l.updated_at, COALESCE(c.total, 0), COALESCE(c.completed, 0)
	FROM lists l
	LEFT JOIN (
		SELECT list_id, count(*) AS total, count(*) FILTER (WHERE status = 'done') AS completed
		FROM tasks GROUP BY list_id
	) c ON c.list_id = l.id`

type ListRepo struct {
	pool *pgxpool.Pool
}

func NewListRepo(pool *pgxpool.Pool) *ListRepo {
	return &ListRepo{pool: pool}
}

func scanList(row pgx.Row) (model.List, error) {
	var l model.List
	err := row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Color, &l.Emoji, &l.IsFavorite, &l.Position, &l.Version,
		&l.CreatedAt, &l.UpdatedAt, &l.TaskCount, &l.CompletedCount)
	return l, err
}

func (r *ListRepo) Create(ctx context.Context, l model.List) (model.List, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lists (id, owner_id, name, color, emoji, is_favorite, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.OwnerID, l.Name, l.Color, l.Emoji, l.IsFavorite, l.Position)
	if err != nil {
		return l, mapError(err)
	}
	return r.Get(ctx, l.ID, l.OwnerID)
}

func (r *ListRepo) Get(ctx context.Context, id, ownerID string) (model.List, error) {
	l, err := scanList(r.pool.QueryRow(ctx, listSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return l, notFound("list", id)
	}
	if err != nil {
		return l, err
	}
	if l.OwnerID != ownerID {
		return model.List{}, forbidden("list", id)
	}
	return l, nil
}

func (r *ListRepo) List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM lists WHERE owner_id = $1 AND ($2::bool IS NULL OR is_favorite = $2)
	`, ownerID, q.Favorite).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, listSelect+`
		WHERE l.owner_id = $1 AND ($2::bool IS NULL OR l.is_favorite = $2)
		ORDER BY l.position, l.name, l.id
		LIMIT $3 OFFSET $4
	`, ownerID, q.Favorite, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lists := make([]model.List, 0, q.PageSize)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, 0, err
		}
		lists = append(lists, l)
	}
	return lists, total, rows.Err()
}

func (r *ListRepo) Update(ctx context.Context, l model.List) (model.List, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE lists
		SET name = $4, color = $5, emoji = $6, is_favorite = $7, position = $8,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND version = $3
	`, l.ID, l.OwnerID, l.Version, l.Name, l.Color, l.Emoji, l.IsFavorite, l.Position)
	if err != nil {
		return l, mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return l, classify(ctx, r.pool, "lists", "list", l.ID, l.OwnerID)
	}
	return r.Get(ctx, l.ID, l.OwnerID)
}

func (r *ListRepo) Delete(ctx context.Context, id, ownerID string) error {
	// задачи удаляются каскадом (FK ON DELETE CASCADE)
	cmd, err := r.pool.Exec(ctx, "DELETE FROM lists WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return classify(ctx, r.pool, "lists", "list", id, ownerID)
	}
	return nil
}

func (r *ListRepo) NameTaken(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lists WHERE owner_id = $1 AND lower(name) = lower($2) AND id <> $3
		)
	`, ownerID, name, excludeID).Scan(&taken)
	return taken, err
}
