// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package catalog

import (
	"context"
	"fmt"
)

// schemaQueries creates the catalog tables. All columns are declared in
// the initial CREATE TABLE statements; there is no migration machinery.
var schemaQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS users (
		user_id        BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
		email          VARCHAR NOT NULL,
		name           VARCHAR NOT NULL,
		country        VARCHAR NOT NULL DEFAULT 'KR',
		signup_date    DATE NOT NULL,
		account_status VARCHAR NOT NULL DEFAULT 'active',
		is_subscribed  BOOLEAN NOT NULL DEFAULT false,
		deleted_at     TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS contents (
		contents_id        VARCHAR PRIMARY KEY,
		contents_type      VARCHAR NOT NULL,
		title              VARCHAR NOT NULL,
		popularity         DOUBLE NOT NULL,
		number_of_episodes INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS subscription_plans (
		subscription_id INTEGER PRIMARY KEY,
		plan_family     VARCHAR NOT NULL,
		monthly_price   INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		user_id         BIGINT NOT NULL,
		subscription_id INTEGER NOT NULL,
		status          VARCHAR NOT NULL DEFAULT 'active',
		start_date      TIMESTAMP NOT NULL
	)`,
}

// initSchema creates all tables if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	for _, q := range schemaQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
