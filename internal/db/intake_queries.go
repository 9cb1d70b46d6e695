/*-------------------------------------------------------------------------
 *
 * intake_queries.go
 *    Database queries for intakes
 *
 * The engine only reads intakes and writes the individual fields that
 * checklist keys map to. Intake creation and the wider onboarding flow
 * live outside this service.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/intake_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

/* Intake queries */
const (
	getIntakeQuery = `SELECT * FROM launchbase.intakes WHERE id = $1`

	listPaidIntakesQuery = `
		SELECT * FROM launchbase.intakes
		WHERE status = 'paid'
		ORDER BY created_at ASC`
)

/* Columns checklist key setters are allowed to touch */
var intakeUpdatableColumns = map[string]bool{
	"business_name": true,
	"tagline":       true,
	"about":         true,
	"phone":         true,
	"email":         true,
	"booking_link":  true,
	"primary_cta":   true,
	"services":      true,
	"service_area":  true,
	"gmb_category":  true,
	"brand_colors":  true,
}

/* GetIntake gets an intake by ID */
func (q *Queries) GetIntake(ctx context.Context, id int64) (*Intake, error) {
	var intake Intake
	err := q.DB.GetContext(ctx, &intake, getIntakeQuery, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake: %w", err)
	}
	return &intake, nil
}

/* ListPaidIntakes lists intakes eligible for sequencing */
func (q *Queries) ListPaidIntakes(ctx context.Context) ([]Intake, error) {
	var intakes []Intake
	err := q.DB.SelectContext(ctx, &intakes, listPaidIntakesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list paid intakes: %w", err)
	}
	return intakes, nil
}

/* UpdateIntakeFields applies a column -> value update set to one intake.
 * Only whitelisted columns are accepted. */
func (q *Queries) UpdateIntakeFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates))
	for col := range updates {
		if !intakeUpdatableColumns[col] {
			return fmt.Errorf("column %q is not updatable by the engine", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	args = append(args, id)
	for i, col := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+2))
		args = append(args, updates[col])
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE launchbase.intakes SET %s WHERE id = $1", strings.Join(setClauses, ", "))
	if _, err := q.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("intake update failed: %w", err)
	}
	return nil
}
