package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calderweb/forest_service/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite. It is intended
// for local development and single-process deployments.
type SQLiteRepository struct {
	db     *sql.DB
	q      querier
	dbPath string
}

// NewSQLiteRepository creates a new SQLite repository instance
func NewSQLiteRepository() Repository {
	// Default to data directory in user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".forest_service")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		// Fallback to current directory if home directory is not accessible
		dataDir = "."
	}

	return &SQLiteRepository{
		dbPath: filepath.Join(dataDir, "forest.db"),
	}
}

// Initialize sets up the SQLite database
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite3", r.dbPath+"?_foreign_keys=on")
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			forest TEXT NOT NULL,
			label TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			parent_id INTEGER REFERENCES nodes(id),
			position INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_forest_parent ON nodes (forest, parent_id, position);
	`)
	if err != nil {
		db.Close()
		return err
	}

	r.db = db
	r.q = db
	return nil
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetByID retrieves a node by ID
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	node, err := scanNode(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return node, nil
}

// ListByParent retrieves the direct children of parentID, position ascending
func (r *SQLiteRepository) ListByParent(ctx context.Context, forest models.Forest, parentID *int64) ([]*models.Node, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.q.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE forest = ? AND parent_id IS NULL ORDER BY position, id",
			forest)
	} else {
		rows, err = r.q.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE forest = ? AND parent_id = ? ORDER BY position, id",
			forest, *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNodes(rows)
}

// ListForest retrieves all nodes of one forest
func (r *SQLiteRepository) ListForest(ctx context.Context, forest models.Forest) ([]*models.Node, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE forest = ? ORDER BY id", forest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNodes(rows)
}

// Insert stores a new node and returns it with its assigned ID
func (r *SQLiteRepository) Insert(ctx context.Context, node *models.Node) (*models.Node, error) {
	if node.Label == "" || node.Forest == "" {
		return nil, ErrInvalidInput
	}

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO nodes (forest, label, target, slug, description, icon, image, parent_id, position, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Forest, node.Label, node.Target, node.Slug, node.Description,
		node.Icon, node.Image, node.ParentID, node.Position, node.Active,
	)
	if err != nil {
		return nil, err
	}

	created := *node
	created.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFields applies a partial update to a node
func (r *SQLiteRepository) UpdateFields(ctx context.Context, id int64, fields models.NodeFields) (*models.Node, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if fields.Label != nil {
		add("label", *fields.Label)
	}
	if fields.Target != nil {
		add("target", *fields.Target)
	}
	if fields.Slug != nil {
		add("slug", *fields.Slug)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.Icon != nil {
		add("icon", *fields.Icon)
	}
	if fields.Image != nil {
		add("image", *fields.Image)
	}
	if fields.Active != nil {
		add("active", *fields.Active)
	}
	if fields.Position != nil {
		add("position", *fields.Position)
	}
	if fields.Parent != nil {
		add("parent_id", fields.Parent.ID)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	result, err := r.q.ExecContext(ctx,
		fmt.Sprintf("UPDATE nodes SET %s WHERE id = ?", strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNodeNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes a single node
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNodeNotFound
	}
	return nil
}

// WithTransaction executes fn atomically against a transaction-bound view
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := &SQLiteRepository{q: tx, dbPath: r.dbPath}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}
	return tx.Commit()
}
