package actors

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// SQLiteRepository stores actors and their flags in a single-file database.
// It suits a table run from one machine without Redis.
type SQLiteRepository struct {
	db           *sql.DB
	timeProvider TimeProvider
}

// NewSQLiteRepository opens or creates the database at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRepository{
		db:           db,
		timeProvider: SystemTime(),
	}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return r, nil
}

// Close closes the underlying database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actors (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		kind        TEXT NOT NULL,
		system      TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actors_kind ON actors(kind, name);

	CREATE TABLE IF NOT EXISTS actor_flags (
		actor_id    TEXT NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
		ns          TEXT NOT NULL,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (actor_id, ns, key)
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Create stores a new actor and any flags it carries
func (r *SQLiteRepository) Create(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	system, err := marshalSystem(a.System)
	if err != nil {
		return err
	}

	now := r.timeProvider.Now().Format(time.RFC3339Nano)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM actors WHERE id = ?`, a.ID).Scan(&count); err != nil {
		return fmt.Errorf("check actor: %w", err)
	}
	if count > 0 {
		return sheeterr.AlreadyExistsf("actor with ID '%s' already exists", a.ID).
			WithMeta("actor_id", a.ID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO actors (id, owner_id, name, kind, system, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, string(a.Kind), system, now, now)
	if err != nil {
		return fmt.Errorf("insert actor: %w", err)
	}

	for namespace, scope := range a.Flags {
		for key, value := range scope {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO actor_flags (actor_id, ns, key, value, updated_at) VALUES (?, ?, ?, ?, ?)`,
				a.ID, namespace, key, string(value), now); err != nil {
				return fmt.Errorf("insert flag %s.%s: %w", namespace, key, err)
			}
		}
	}

	return tx.Commit()
}

// Get retrieves an actor and its flags
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*actor.Actor, error) {
	if id == "" {
		return nil, sheeterr.InvalidArgument("actor ID is required")
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, kind, system, created_at, updated_at FROM actors WHERE id = ?`, id)
	a, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadFlags(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// ListByKind retrieves all actors of a kind ordered by name
func (r *SQLiteRepository) ListByKind(ctx context.Context, kind actor.Kind) ([]*actor.Actor, error) {
	if kind == "" {
		return nil, sheeterr.InvalidArgument("actor kind is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, kind, system, created_at, updated_at FROM actors WHERE kind = ? ORDER BY name`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var result []*actor.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range result {
		if err := r.loadFlags(ctx, a); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Update replaces an actor's fields, keeping its flags
func (r *SQLiteRepository) Update(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	system, err := marshalSystem(a.System)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE actors SET owner_id = ?, name = ?, kind = ?, system = ?, updated_at = ? WHERE id = ?`,
		a.OwnerID, a.Name, string(a.Kind), system, r.timeProvider.Now().Format(time.RFC3339Nano), a.ID)
	if err != nil {
		return fmt.Errorf("update actor: %w", err)
	}

	return requireAffected(res, a.ID)
}

// Delete removes an actor; flags cascade
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sheeterr.InvalidArgument("actor ID is required")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM actors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete actor: %w", err)
	}

	return requireAffected(res, id)
}

// GetFlag returns a single flag value or nil
func (r *SQLiteRepository) GetFlag(ctx context.Context, actorID, namespace, key string) (json.RawMessage, error) {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return nil, err
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return nil, err
	}

	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM actor_flags WHERE actor_id = ? AND ns = ? AND key = ?`,
		actorID, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get flag %s.%s: %w", namespace, key, err)
	}

	return json.RawMessage(value), nil
}

// SetFlag upserts a single flag value
func (r *SQLiteRepository) SetFlag(ctx context.Context, actorID, namespace, key string, value json.RawMessage) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return sheeterr.InvalidArgumentf("flag %s.%s is not valid JSON", namespace, key)
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actor_flags (actor_id, ns, key, value, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(actor_id, ns, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		actorID, namespace, key, string(value), r.timeProvider.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set flag %s.%s: %w", namespace, key, err)
	}

	return nil
}

// UnsetFlag removes a single flag value
func (r *SQLiteRepository) UnsetFlag(ctx context.Context, actorID, namespace, key string) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM actor_flags WHERE actor_id = ? AND ns = ? AND key = ?`, actorID, namespace, key)
	if err != nil {
		return fmt.Errorf("unset flag %s.%s: %w", namespace, key, err)
	}

	return nil
}

func (r *SQLiteRepository) ensureExists(ctx context.Context, id string) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actors WHERE id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("check actor: %w", err)
	}
	if count == 0 {
		return notFound(id)
	}
	return nil
}

func (r *SQLiteRepository) loadFlags(ctx context.Context, a *actor.Actor) error {
	rows, err := r.db.QueryContext(ctx, `SELECT ns, key, value FROM actor_flags WHERE actor_id = ?`, a.ID)
	if err != nil {
		return fmt.Errorf("load flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var namespace, key, value string
		if err := rows.Scan(&namespace, &key, &value); err != nil {
			return fmt.Errorf("scan flag: %w", err)
		}
		a.SetFlag(namespace, key, json.RawMessage(value))
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*actor.Actor, error) {
	var (
		a                    actor.Actor
		kind                 string
		system               sql.NullString
		createdAt, updatedAt string
	)

	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &kind, &system, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	a.Kind = actor.Kind(kind)
	if system.Valid && system.String != "" {
		a.System = &actor.System{}
		if err := json.Unmarshal([]byte(system.String), a.System); err != nil {
			return nil, fmt.Errorf("unmarshal system for actor %s: %w", a.ID, err)
		}
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &a, nil
}

func marshalSystem(system *actor.System) (any, error) {
	if system == nil {
		return nil, nil
	}
	b, err := json.Marshal(system)
	if err != nil {
		return nil, fmt.Errorf("marshal system: %w", err)
	}
	return string(b), nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}
