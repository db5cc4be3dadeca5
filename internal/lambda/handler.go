package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/calderweb/forest_service/cache"
	"github.com/calderweb/forest_service/models"
	"github.com/calderweb/forest_service/tree"

	"github.com/aws/aws-lambda-go/events"
)

// Handler routes API Gateway events onto the tree manager. It exposes
// the forest read and the basic mutations; the full admin surface runs
// behind the gin server.
type Handler struct {
	manager *tree.Manager
}

// NewHandler creates a new Handler with the given tree manager
func NewHandler(manager *tree.Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

// Handle processes API Gateway events
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch {
	case request.HTTPMethod == "GET" && request.Path == "/api/tree":
		return h.handleGetForest(ctx, request)
	case request.HTTPMethod == "POST" && request.Path == "/api/tree":
		return h.handleCreateNode(ctx, request)
	case request.HTTPMethod == "DELETE" && request.Path == "/api/tree":
		return h.handleDeleteNode(ctx, request)
	default:
		return respond(404, map[string]string{"error": "Not found"})
	}
}

func (h *Handler) handleGetForest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	forest := models.Forest(request.QueryStringParameters["forest"])
	if forest == "" {
		return respond(400, map[string]string{"error": "forest parameter is required"})
	}

	// Try to get from cache first
	if cachedTree, found := cache.GetForest(forest); found {
		return respond(200, map[string]interface{}{"data": cachedTree})
	}

	roots, warnings, err := h.manager.GetForest(ctx, forest)
	if err != nil {
		return respondError(err)
	}

	cache.SetForest(forest, roots)

	body := map[string]interface{}{"data": roots}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}
	return respond(200, body)
}

func (h *Handler) handleCreateNode(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	forest := models.Forest(request.QueryStringParameters["forest"])
	if forest == "" {
		return respond(400, map[string]string{"error": "forest parameter is required"})
	}

	var req models.CreateNodeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return respond(400, map[string]string{"error": fmt.Sprintf("Invalid request: %v", err)})
	}
	if err := req.Validate(); err != nil {
		return respond(400, map[string]string{"error": err.Error()})
	}

	node, err := h.manager.Create(ctx, tree.CreateInput{
		Forest:      forest,
		Label:       req.Label,
		Target:      req.Target,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		Image:       req.Image,
		ParentID:    req.ParentID,
	})
	if err != nil {
		return respondError(err)
	}

	cache.Invalidate(forest)
	return respond(201, node)
}

func (h *Handler) handleDeleteNode(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := strconv.ParseInt(request.QueryStringParameters["id"], 10, 64)
	if err != nil || id <= 0 {
		return respond(400, map[string]string{"error": "invalid node id"})
	}
	cascade := request.QueryStringParameters["cascade"] == "true"

	node, err := h.manager.Get(ctx, id)
	if err != nil {
		return respondError(err)
	}

	if err := h.manager.Delete(ctx, id, cascade); err != nil {
		return respondError(err)
	}

	cache.Invalidate(node.Forest)
	return respond(204, nil)
}

// respond serializes a JSON API Gateway response
func respond(status int, body interface{}) (events.APIGatewayProxyResponse, error) {
	if body == nil {
		return events.APIGatewayProxyResponse{StatusCode: status}, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf(`{"error": "Failed to marshal response: %v"}`, err),
		}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(data),
	}, nil
}

// respondError maps the tree error taxonomy onto API Gateway statuses
func respondError(err error) (events.APIGatewayProxyResponse, error) {
	status := 500
	switch {
	case errors.Is(err, tree.ErrNotFound), errors.Is(err, tree.ErrUnknownParent):
		status = 404
	case errors.Is(err, tree.ErrHasChildren):
		status = 409
	case errors.Is(err, tree.ErrInvalidInput),
		errors.Is(err, tree.ErrInvalidParent),
		errors.Is(err, tree.ErrForestMismatch),
		errors.Is(err, tree.ErrBoundary),
		errors.Is(err, tree.ErrSetMismatch):
		status = 400
	}
	return respond(status, map[string]string{"error": err.Error()})
}
