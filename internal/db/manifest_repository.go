package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/pass"
	"github.com/vantagecv/synthgen/internal/placement"
)

// ErrManifestNotFound is returned when no pass has the requested id.
var ErrManifestNotFound = errors.New("manifest not found")

var placementColumns = []string{
	"pass_id", "seq", "instance_id", "strategy", "anchor", "asset", "mode",
	"success", "failure_reason", "x", "y", "z", "pitch", "yaw", "roll", "scale",
	"visibility", "usable",
}

// PassSummary is one row of the pass listing.
type PassSummary struct {
	ID         uuid.UUID
	Index      int
	Seed       int64
	Attempted  int
	Placed     int
	FinishedAt time.Time
}

// ManifestRepository stores pass manifests. It implements pass.ManifestStore.
type ManifestRepository struct {
	pool *pgxpool.Pool
}

// NewManifestRepository creates a new manifest repository.
func NewManifestRepository(pool *pgxpool.Pool) *ManifestRepository {
	return &ManifestRepository{pool: pool}
}

// SaveManifest writes a pass and its placements in a single transaction.
func (r *ManifestRepository) SaveManifest(ctx context.Context, m *pass.Manifest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for pass %s: %w", m.ID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO passes (id, pass_index, seed, rand_calls, anchors, hidden, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Index, m.Seed, m.RandCalls, m.Anchors, m.Hidden, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting pass %s: %w", m.ID, err)
	}

	if len(m.Placements) > 0 {
		rows := make([][]any, 0, len(m.Placements))
		for i, p := range m.Placements {
			t := p.Transform
			rows = append(rows, []any{
				m.ID, i, p.InstanceID, string(p.Strategy), p.Anchor, p.Asset, string(p.Mode),
				p.Success, p.FailureReason,
				t.Location.X, t.Location.Y, t.Location.Z,
				t.Rotation.Pitch, t.Rotation.Yaw, t.Rotation.Roll, t.Scale,
				p.Visibility, p.Usable,
			})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"placements"}, placementColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("inserting placements for pass %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pass %s: %w", m.ID, err)
	}

	slog.Debug("saved manifest", "id", m.ID, "pass", m.Index, "placements", len(m.Placements))
	return nil
}

// LoadManifest loads a pass with its placements in their original order.
// Scene handles are not persisted; loaded placements carry a zero Object.
func (r *ManifestRepository) LoadManifest(ctx context.Context, id uuid.UUID) (*pass.Manifest, error) {
	m := &pass.Manifest{ID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT pass_index, seed, rand_calls, anchors, hidden, started_at, finished_at
		FROM passes WHERE id = $1`, id,
	).Scan(&m.Index, &m.Seed, &m.RandCalls, &m.Anchors, &m.Hidden, &m.StartedAt, &m.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("loading pass %s: %w", id, ErrManifestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading pass %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT instance_id, strategy, anchor, asset, mode, success, failure_reason,
		       x, y, z, pitch, yaw, roll, scale, visibility, usable
		FROM placements
		WHERE pass_id = $1
		ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading placements for pass %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        pass.Placement
			strategy string
			mode     string
			t        geom.Transform
		)
		if err := rows.Scan(
			&p.InstanceID, &strategy, &p.Anchor, &p.Asset, &mode, &p.Success, &p.FailureReason,
			&t.Location.X, &t.Location.Y, &t.Location.Z,
			&t.Rotation.Pitch, &t.Rotation.Yaw, &t.Rotation.Roll, &t.Scale,
			&p.Visibility, &p.Usable,
		); err != nil {
			return nil, fmt.Errorf("scanning placement row: %w", err)
		}
		p.Strategy = placement.Strategy(strategy)
		p.Mode = placement.ParkingMode(mode)
		p.Transform = t
		m.Placements = append(m.Placements, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placement rows: %w", err)
	}

	return m, nil
}

// ListPasses returns the most recently finished passes, newest first.
func (r *ManifestRepository) ListPasses(ctx context.Context, limit int) ([]PassSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.pass_index, p.seed, p.finished_at,
		       COUNT(pl.seq), COUNT(pl.seq) FILTER (WHERE pl.success)
		FROM passes p
		LEFT JOIN placements pl ON pl.pass_id = p.id
		GROUP BY p.id
		ORDER BY p.finished_at DESC, p.pass_index
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing passes: %w", err)
	}
	defer rows.Close()

	var out []PassSummary
	for rows.Next() {
		var s PassSummary
		if err := rows.Scan(&s.ID, &s.Index, &s.Seed, &s.FinishedAt, &s.Attempted, &s.Placed); err != nil {
			return nil, fmt.Errorf("scanning pass row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pass rows: %w", err)
	}
	return out, nil
}

// DeletePass removes a pass and its placements.
func (r *ManifestRepository) DeletePass(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM passes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting pass %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting pass %s: %w", id, ErrManifestNotFound)
	}
	return nil
}
