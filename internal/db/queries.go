/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Query entry point for the lifecycle engine
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"github.com/jmoiron/sqlx"
)

/* Queries provides typed access to all engine tables */
type Queries struct {
	DB *sqlx.DB
}

/* NewQueries creates a new Queries instance */
func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}
