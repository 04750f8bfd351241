package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/financeai/internal/model"
)

// SaveSnapshot stores snap as the newest snapshot for account. A missing
// ID is generated; FetchedAt defaults to now.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, account string, snap model.Snapshot) error {
	if account == "" {
		return fmt.Errorf("snapshot account must not be empty")
	}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}

	spending, err := json.Marshal(snap.Spending)
	if err != nil {
		return fmt.Errorf("marshaling spending for snapshot %s: %w", snap.ID, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (
			id, account,
			total_balance, monthly_income, monthly_expenses, savings_rate,
			spending, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, account,
		snap.Stats.TotalBalance, snap.Stats.MonthlyIncome,
		snap.Stats.MonthlyExpenses, snap.Stats.SavingsRate,
		string(spending), snap.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot %s: %w", snap.ID, err)
	}

	if err := insertTransactions(ctx, tx, snap.ID, snap.Transactions); err != nil {
		return err
	}
	if err := insertGoals(ctx, tx, snap.ID, snap.Goals); err != nil {
		return err
	}

	return tx.Commit()
}

func insertTransactions(ctx context.Context, tx *sqlx.Tx, snapshotID string, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO snapshot_transactions (
			snapshot_id, position, id, title, category, amount,
			date, type, bank, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing transaction insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		_, err := stmt.ExecContext(ctx,
			snapshotID, i, t.ID, t.Title, t.Category, t.Amount,
			t.Date.UTC(), t.Type, t.Bank, t.Description, t.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting transaction %d: %w", t.ID, err)
		}
	}
	return nil
}

func insertGoals(ctx context.Context, tx *sqlx.Tx, snapshotID string, goals []model.Goal) error {
	if len(goals) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO snapshot_goals (
			snapshot_id, position, id, title, target, current,
			deadline, color, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing goal insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range goals {
		var deadline *time.Time
		if g.Deadline != nil {
			d := g.Deadline.UTC()
			deadline = &d
		}
		_, err := stmt.ExecContext(ctx,
			snapshotID, i, g.ID, g.Title, g.Target, g.Current,
			deadline, g.Color, g.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting goal %d: %w", g.ID, err)
		}
	}
	return nil
}

// LatestSnapshot returns the most recently fetched snapshot for account,
// or ErrNotFound.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, account string) (*model.Snapshot, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, total_balance, monthly_income, monthly_expenses, savings_rate,
			spending, fetched_at
		FROM snapshots
		WHERE account = ?
		ORDER BY fetched_at DESC
		LIMIT 1`, account)

	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshot for %s: %w", account, err)
	}

	snap.Transactions, err = s.snapshotTransactions(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	snap.Goals, err = s.snapshotGoals(ctx, snap.ID)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// PruneSnapshots deletes all but the keep newest snapshots for account.
func (s *SQLiteStore) PruneSnapshots(ctx context.Context, account string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE account = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE account = ?
			ORDER BY fetched_at DESC LIMIT ?
		)`, account, account, keep)
	if err != nil {
		return fmt.Errorf("pruning snapshots for %s: %w", account, err)
	}
	return nil
}

func (s *SQLiteStore) snapshotTransactions(ctx context.Context, snapshotID string) ([]model.Transaction, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, title, category, amount, date, type, bank, description, created_at
		FROM snapshot_transactions
		WHERE snapshot_id = ?
		ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		err := rows.Scan(
			&t.ID, &t.Title, &t.Category, &t.Amount,
			&t.Date, &t.Type, &t.Bank, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func (s *SQLiteStore) snapshotGoals(ctx context.Context, snapshotID string) ([]model.Goal, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, title, target, current, deadline, color, created_at
		FROM snapshot_goals
		WHERE snapshot_id = ?
		ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		err := rows.Scan(
			&g.ID, &g.Title, &g.Target, &g.Current,
			&g.Deadline, &g.Color, &g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning goal row: %w", err)
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

// scanSnapshotRow scans the snapshots columns selected by LatestSnapshot.
func scanSnapshotRow(row *sqlx.Row) (model.Snapshot, error) {
	var (
		snap     model.Snapshot
		spending string
	)

	err := row.Scan(
		&snap.ID,
		&snap.Stats.TotalBalance, &snap.Stats.MonthlyIncome,
		&snap.Stats.MonthlyExpenses, &snap.Stats.SavingsRate,
		&spending, &snap.FetchedAt,
	)
	if err != nil {
		return model.Snapshot{}, err
	}

	if spending != "" {
		if err := json.Unmarshal([]byte(spending), &snap.Spending); err != nil {
			return model.Snapshot{}, fmt.Errorf("unmarshaling spending: %w", err)
		}
	}

	return snap, nil
}
