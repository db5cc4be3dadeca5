package repository

import (
	"context"
	"errors"

	"github.com/calderweb/forest_service/models"
)

// Repository defines the interface for node persistence. It stores flat
// node records only; tree assembly and all ordering rules live in the
// tree package, which consumes this interface.
type Repository interface {
	// Initialize performs any necessary setup for the repository.
	// This may include establishing database connections, creating tables,
	// or running schema migrations. Returns an error if setup fails.
	Initialize(ctx context.Context) error

	// Cleanup releases any resources held by the repository, such as
	// database connections. Returns an error if cleanup fails.
	Cleanup(ctx context.Context) error

	// GetByID retrieves a node by its ID.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	GetByID(ctx context.Context, id int64) (*models.Node, error)

	// ListByParent retrieves the direct children of parentID within one
	// forest, ordered by ascending position. A nil parentID lists the
	// forest's root nodes.
	ListByParent(ctx context.Context, forest models.Forest, parentID *int64) ([]*models.Node, error)

	// ListForest retrieves every node of one forest, ordered by ID.
	ListForest(ctx context.Context, forest models.Forest) ([]*models.Node, error)

	// Insert stores a new node and returns it with its assigned ID.
	Insert(ctx context.Context, node *models.Node) (*models.Node, error)

	// UpdateFields applies a partial update to an existing node and
	// returns the updated record. Nil fields are left untouched.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	UpdateFields(ctx context.Context, id int64, fields models.NodeFields) (*models.Node, error)

	// DeleteByID removes a single node.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// WithTransaction executes fn atomically. The Repository passed to fn
	// is bound to the transaction; either every write made through it is
	// committed, or none is. Reparent, reorder and delete operations
	// depend on this to keep sibling positions dense under concurrency.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
)
