package models

import (
	"github.com/go-playground/validator/v10"
)

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Label       string `json:"label" validate:"required,min=1,max=100"`
	Target      string `json:"target" validate:"required,min=1,max=500"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Icon        string `json:"icon" validate:"omitempty,max=200"`
	Image       string `json:"image" validate:"omitempty,max=500"`
	ParentID    *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

// UpdateNodeRequest represents the request body for editing a node's
// display fields. Parent and position changes go through their own
// endpoints.
type UpdateNodeRequest struct {
	Label       *string `json:"label,omitempty" validate:"omitempty,min=1,max=100"`
	Target      *string `json:"target,omitempty" validate:"omitempty,min=1,max=500"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=200"`
	Image       *string `json:"image,omitempty" validate:"omitempty,max=500"`
}

// ReparentRequest represents the request body for moving a node under a
// new parent. A null parentId moves the node to the root level.
type ReparentRequest struct {
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

// MoveNodeRequest represents the request body for swapping a node with
// its adjacent sibling.
type MoveNodeRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ReorderRequest represents the request body for a full sibling-group
// reorder, typically produced by drag and drop in the admin UI.
type ReorderRequest struct {
	ParentID   *int64  `json:"parentId" validate:"omitempty,gt=0"`
	OrderedIDs []int64 `json:"orderedIds" validate:"required,min=1,dive,gt=0"`
}

// Validate validates the create node request
func (r *CreateNodeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the update node request
func (r *UpdateNodeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the reparent request
func (r *ReparentRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the move request
func (r *MoveNodeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the reorder request
func (r *ReorderRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
