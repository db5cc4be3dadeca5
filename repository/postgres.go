package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/calderweb/forest_service/config"
	"github.com/calderweb/forest_service/migrations"
	"github.com/calderweb/forest_service/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so transaction-bound repositories reuse every query method.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db     *sql.DB
	q      querier
	config *config.DatabaseConfig
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(cfgProvider config.Provider) (*PostgresRepository, error) {
	ctx := context.Background()
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	return &PostgresRepository{
		config: cfg,
	}, nil
}

// Initialize opens the connection pool and runs migrations
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		r.config.Host,
		r.config.Port,
		r.config.User,
		r.config.Password,
		r.config.DBName,
		r.config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	if err := r.runMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("error running migrations: %w", err)
	}

	r.db = db
	r.q = db
	return nil
}

// runMigrations executes the embedded database migrations
func (r *PostgresRepository) runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	src, err := migrations.Source()
	if err != nil {
		return fmt.Errorf("error loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const nodeColumns = "id, forest, label, target, slug, description, icon, image, parent_id, position, active"

// scanNode reads one node row
func scanNode(scan func(dest ...interface{}) error) (*models.Node, error) {
	var node models.Node
	var parentID sql.NullInt64
	err := scan(
		&node.ID, &node.Forest, &node.Label, &node.Target, &node.Slug,
		&node.Description, &node.Icon, &node.Image, &parentID,
		&node.Position, &node.Active,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		node.ParentID = &parentID.Int64
	}
	return &node, nil
}

// GetByID retrieves a node by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1", id)
	node, err := scanNode(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error getting node: %w", err)
	}
	return node, nil
}

// ListByParent retrieves the direct children of parentID, position ascending
func (r *PostgresRepository) ListByParent(ctx context.Context, forest models.Forest, parentID *int64) ([]*models.Node, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.q.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE forest = $1 AND parent_id IS NULL ORDER BY position, id",
			forest)
	} else {
		rows, err = r.q.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE forest = $1 AND parent_id = $2 ORDER BY position, id",
			forest, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing nodes: %w", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// ListForest retrieves all nodes of one forest
func (r *PostgresRepository) ListForest(ctx context.Context, forest models.Forest) ([]*models.Node, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE forest = $1 ORDER BY id", forest)
	if err != nil {
		return nil, fmt.Errorf("error listing forest: %w", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]*models.Node, error) {
	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// Insert stores a new node and returns it with its assigned ID
func (r *PostgresRepository) Insert(ctx context.Context, node *models.Node) (*models.Node, error) {
	if node.Label == "" || node.Forest == "" {
		return nil, ErrInvalidInput
	}

	created := *node
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO nodes (forest, label, target, slug, description, icon, image, parent_id, position, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		node.Forest, node.Label, node.Target, node.Slug, node.Description,
		node.Icon, node.Image, node.ParentID, node.Position, node.Active,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating node: %w", err)
	}
	return &created, nil
}

// UpdateFields applies a partial update to a node
func (r *PostgresRepository) UpdateFields(ctx context.Context, id int64, fields models.NodeFields) (*models.Node, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
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
	query := fmt.Sprintf("UPDATE nodes SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), nodeColumns)

	row := r.q.QueryRowContext(ctx, query, args...)
	node, err := scanNode(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error updating node: %w", err)
	}
	return node, nil
}

// DeleteByID removes a single node
func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM nodes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting node: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNodeNotFound
	}
	return nil
}

// WithTransaction executes fn atomically against a transaction-bound view
func (r *PostgresRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.db == nil {
		// Already inside a transaction; SQL transactions do not nest.
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := &PostgresRepository{q: tx, config: r.config}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}
	return tx.Commit()
}
