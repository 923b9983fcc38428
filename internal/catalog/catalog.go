// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package catalog is the DuckDB-backed store for users, contents and
// subscription plans. It serves the user pool and the behavior engine
// with a narrow read/write API; runtime user state lives in the pool,
// not here.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
	"github.com/ottlab/loggen/internal/sample"
)

// topContentsLimit bounds the in-memory popularity cache. Content picks
// are weighted draws from this cache, not per-pick queries.
const topContentsLimit = 50

// UserRow is a persisted user record as stored in the catalog. The pool
// turns rows into runtime models.User values.
type UserRow struct {
	ID           int64
	IsSubscribed bool
	SignupDate   time.Time
}

// DB wraps the DuckDB connection with a prepared statement cache and the
// startup-loaded content and plan caches.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger

	stmtCache map[string]*sql.Stmt
	stmtMutex sync.RWMutex

	// Loaded once at startup. Contents ordered by popularity descending;
	// chooser indexes into contents.
	contents    []models.Content
	contentByID map[string]models.Content
	chooser     *sample.Chooser
	plans       []models.SubscriptionPlan
}

// Open opens (or creates) the DuckDB database at path, bootstraps the
// schema and loads the content and plan caches.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	db := &DB{
		conn:      conn,
		logger:    logger.With().Str("component", "catalog").Logger(),
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, &Error{Op: "init_schema", Err: err}
	}

	db.logger.Info().Str("path", path).Msg("catalog opened")
	return db, nil
}

// LoadCaches loads the top-contents popularity cache and the plan list.
// Call after seeding; generation cannot start without both.
func (db *DB) LoadCaches(ctx context.Context) error {
	if err := db.loadContents(ctx); err != nil {
		return err
	}
	if err := db.loadPlans(ctx); err != nil {
		return err
	}
	db.logger.Info().
		Int("contents", len(db.contents)).
		Int("plans", len(db.plans)).
		Msg("catalog caches loaded")
	return nil
}

// Close drains the statement cache and closes the connection.
func (db *DB) Close() error {
	db.stmtMutex.Lock()
	for query, stmt := range db.stmtCache {
		if err := stmt.Close(); err != nil {
			db.logger.Warn().Err(err).Msg("failed to close cached statement")
		}
		delete(db.stmtCache, query)
	}
	db.stmtMutex.Unlock()
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// prepare returns a cached prepared statement, preparing it on first use.
func (db *DB) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtMutex.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtMutex.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtMutex.Lock()
	defer db.stmtMutex.Unlock()
	if stmt, ok = db.stmtCache[query]; ok {
		return stmt, nil
	}
	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// GetRandomUsers draws up to limit distinct active, non-deleted users.
func (db *DB) GetRandomUsers(ctx context.Context, limit int) ([]UserRow, error) {
	start := time.Now()
	defer metrics.ObserveCatalogQuery("get_random_users", start)

	stmt, err := db.prepare(ctx, `
		SELECT user_id, is_subscribed, signup_date
		FROM users
		WHERE account_status = 'active' AND deleted_at IS NULL
		ORDER BY random()
		LIMIT ?`)
	if err != nil {
		return nil, &Error{Op: "get_random_users", Err: err}
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, &Error{Op: "get_random_users", Err: err}
	}
	defer rows.Close()

	users := make([]UserRow, 0, limit)
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.IsSubscribed, &u.SignupDate); err != nil {
			return nil, &Error{Op: "get_random_users", Err: err}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "get_random_users", Err: err}
	}
	if len(users) == 0 {
		return nil, &Error{Op: "get_random_users", Err: ErrNoUsers}
	}
	return users, nil
}

// CreateNewUser inserts a fresh active user signed up on signupDate and
// returns its id.
func (db *DB) CreateNewUser(ctx context.Context, signupDate time.Time) (int64, error) {
	start := time.Now()
	defer metrics.ObserveCatalogQuery("create_new_user", start)

	stmt, err := db.prepare(ctx, `
		INSERT INTO users (email, name, signup_date)
		VALUES (?, ?, ?)
		RETURNING user_id`)
	if err != nil {
		return 0, &Error{Op: "create_new_user", Err: err}
	}

	// Identity is synthetic; the id is assigned by the sequence and the
	// email is derived from it after the fact only in seeded data, so a
	// placeholder keyed on signup time is enough here.
	placeholder := fmt.Sprintf("user-%d", signupDate.UnixNano())
	var id int64
	err = stmt.QueryRowContext(ctx, placeholder+"@example.com", placeholder, signupDate).Scan(&id)
	if err != nil {
		return 0, &Error{Op: "create_new_user", Err: err}
	}
	return id, nil
}

// SoftDeleteUser marks a user deleted at ts. Deleted users are excluded
// from GetRandomUsers.
func (db *DB) SoftDeleteUser(ctx context.Context, userID int64, ts time.Time) error {
	start := time.Now()
	defer metrics.ObserveCatalogQuery("soft_delete_user", start)

	stmt, err := db.prepare(ctx, `
		UPDATE users
		SET account_status = 'deleted', deleted_at = ?
		WHERE user_id = ?`)
	if err != nil {
		return &Error{Op: "soft_delete_user", Err: err}
	}
	if _, err := stmt.ExecContext(ctx, ts, userID); err != nil {
		return &Error{Op: "soft_delete_user", Err: err}
	}
	return nil
}

// MarkSubscription records a subscription start or stop. On start it
// flips the user's is_subscribed flag and appends an active
// user_subscriptions row; on stop it clears the flag and closes the row.
func (db *DB) MarkSubscription(ctx context.Context, userID int64, active bool, planID int, ts time.Time) error {
	start := time.Now()
	defer metrics.ObserveCatalogQuery("mark_subscription", start)

	flip, err := db.prepare(ctx, `UPDATE users SET is_subscribed = ? WHERE user_id = ?`)
	if err != nil {
		return &Error{Op: "mark_subscription", Err: err}
	}
	if _, err := flip.ExecContext(ctx, active, userID); err != nil {
		return &Error{Op: "mark_subscription", Err: err}
	}

	if active {
		ins, err := db.prepare(ctx, `
			INSERT INTO user_subscriptions (user_id, subscription_id, status, start_date)
			VALUES (?, ?, 'active', ?)`)
		if err != nil {
			return &Error{Op: "mark_subscription", Err: err}
		}
		if _, err := ins.ExecContext(ctx, userID, planID, ts); err != nil {
			return &Error{Op: "mark_subscription", Err: err}
		}
		return nil
	}

	stop, err := db.prepare(ctx, `
		UPDATE user_subscriptions
		SET status = 'cancelled'
		WHERE user_id = ? AND status = 'active'`)
	if err != nil {
		return &Error{Op: "mark_subscription", Err: err}
	}
	if _, err := stop.ExecContext(ctx, userID); err != nil {
		return &Error{Op: "mark_subscription", Err: err}
	}
	return nil
}

// GetRandomContent draws a content popularity-weighted from the cached
// top contents.
func (db *DB) GetRandomContent(rng *rand.Rand) (models.Content, error) {
	if db.chooser == nil || len(db.contents) == 0 {
		return models.Content{}, &Error{Op: "get_random_content", Err: ErrNoContents}
	}
	return db.contents[db.chooser.Pick(rng)], nil
}

// GetContentByID looks up a content from the cache.
func (db *DB) GetContentByID(id string) (models.Content, error) {
	c, ok := db.contentByID[id]
	if !ok {
		return models.Content{}, &Error{Op: "get_content_by_id", Err: ErrNotFound}
	}
	return c, nil
}

// Plans returns the cached subscription plan list.
func (db *DB) Plans() []models.SubscriptionPlan {
	return db.plans
}

func (db *DB) loadContents(ctx context.Context) error {
	start := time.Now()
	defer metrics.ObserveCatalogQuery("load_contents", start)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT contents_id, contents_type, popularity, COALESCE(number_of_episodes, 0)
		FROM contents
		ORDER BY popularity DESC
		LIMIT ?`, topContentsLimit)
	if err != nil {
		return &Error{Op: "load_contents", Err: err}
	}
	defer rows.Close()

	db.contents = db.contents[:0]
	db.contentByID = make(map[string]models.Content)
	weights := make([]float64, 0, topContentsLimit)

	for rows.Next() {
		var (
			c       models.Content
			rawType string
		)
		if err := rows.Scan(&c.ID, &rawType, &c.Popularity, &c.Episodes); err != nil {
			return &Error{Op: "load_contents", Err: err}
		}
		c.Type = models.ContentsTypeFromName(rawType)
		db.contents = append(db.contents, c)
		db.contentByID[c.ID] = c
		weights = append(weights, c.Popularity)
	}
	if err := rows.Err(); err != nil {
		return &Error{Op: "load_contents", Err: err}
	}
	if len(db.contents) == 0 {
		return &Error{Op: "load_contents", Err: ErrNoContents}
	}

	chooser, err := sample.NewChooser(weights)
	if err != nil {
		return &Error{Op: "load_contents", Err: err}
	}
	db.chooser = chooser
	return nil
}

func (db *DB) loadPlans(ctx context.Context) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT subscription_id, plan_family
		FROM subscription_plans
		ORDER BY subscription_id`)
	if err != nil {
		return &Error{Op: "load_plans", Err: err}
	}
	defer rows.Close()

	db.plans = db.plans[:0]
	for rows.Next() {
		var p models.SubscriptionPlan
		if err := rows.Scan(&p.ID, &p.Family); err != nil {
			return &Error{Op: "load_plans", Err: err}
		}
		db.plans = append(db.plans, p)
	}
	return rows.Err()
}
