package lineage

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// EventPublisher pushes exported event batches to external catalogs. The
// push is best-effort; failures never surface to API callers.
type EventPublisher interface {
	Publish(batch EventBatch)
}

// API provides the HTTP handlers for the lineage service.
type API struct {
	store     *Store
	detector  AnomalyDetector
	publisher EventPublisher
}

// NewAPI creates a new API handler. detector and publisher may be nil, in
// which case anomaly overlays degrade to unknown and exports are not pushed.
func NewAPI(store *Store, detector AnomalyDetector, publisher EventPublisher) *API {
	return &API{store: store, detector: detector, publisher: publisher}
}

// RegisterRoutes registers the lineage API routes with the given Gin router.
func (a *API) RegisterRoutes(router *gin.Engine) {
	lineage := router.Group("/lineage")
	{
		lineage.GET("", a.getGraphHandler)
		lineage.GET("/sources/:source_id", a.getSourceGraphHandler)
		lineage.GET("/graph/with-anomalies", a.getGraphWithAnomaliesHandler)

		lineage.POST("/nodes", a.createNodeHandler)
		lineage.PUT("/nodes/:node_id", a.updateNodeHandler)
		lineage.DELETE("/nodes/:node_id", a.deleteNodeHandler)
		lineage.GET("/nodes/:node_id/impact", a.getImpactHandler)
		lineage.GET("/nodes/:node_id/anomaly-impact", a.getAnomalyImpactHandler)
		lineage.GET("/nodes/:node_id/columns", a.getNodeColumnsHandler)

		lineage.POST("/edges", a.createEdgeHandler)
		lineage.DELETE("/edges/:edge_id", a.deleteEdgeHandler)
		lineage.GET("/edges/:edge_id/column-mappings", a.getEdgeColumnMappingsHandler)

		lineage.GET("/columns/impact", a.getColumnImpactHandler)

		lineage.POST("/openlineage/export", a.exportHandler)
		lineage.POST("/openlineage/export/granular", a.exportGranularHandler)

		lineage.POST("/positions", a.updatePositionsHandler)
	}
}

// --- Graph handlers ---

func (a *API) getGraphHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.Graph())
}

func (a *API) getSourceGraphHandler(c *gin.Context) {
	graph, err := a.store.SourceGraph(c.Param("source_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (a *API) getGraphWithAnomaliesHandler(c *gin.Context) {
	graph := a.store.Snapshot()
	if sourceID := c.Query("source_id"); sourceID != "" {
		filtered, err := a.store.SourceGraph(sourceID)
		if err != nil {
			respondError(c, err)
			return
		}
		graph = filtered
	}
	c.JSON(http.StatusOK, AttachAnomalyOverlay(c.Request.Context(), graph, a.detector))
}

// --- Node handlers ---

func (a *API) createNodeHandler(c *gin.Context) {
	var req struct {
		Name      string                 `json:"name" binding:"required"`
		NodeType  NodeType               `json:"node_type" binding:"required"`
		SourceID  string                 `json:"source_id"`
		Metadata  map[string]interface{} `json:"metadata"`
		PositionX float64                `json:"position_x"`
		PositionY float64                `json:"position_y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeInvalidJSON, Message: "invalid input: " + err.Error()})
		return
	}

	node, err := a.store.CreateNode(NodeSpec{
		Name:      req.Name,
		NodeType:  req.NodeType,
		SourceID:  req.SourceID,
		Metadata:  req.Metadata,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (a *API) updateNodeHandler(c *gin.Context) {
	var req struct {
		Name      *string                `json:"name"`
		SourceID  *string                `json:"source_id"`
		Metadata  map[string]interface{} `json:"metadata"`
		PositionX *float64               `json:"position_x"`
		PositionY *float64               `json:"position_y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeInvalidJSON, Message: "invalid input: " + err.Error()})
		return
	}

	node, err := a.store.UpdateNode(c.Param("node_id"), NodeUpdate{
		Name:      req.Name,
		SourceID:  req.SourceID,
		Metadata:  req.Metadata,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (a *API) deleteNodeHandler(c *gin.Context) {
	nodeID := c.Param("node_id")
	if err := a.store.DeleteNode(nodeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": nodeID})
}

func (a *API) getImpactHandler(c *gin.Context) {
	result, err := ComputeImpact(a.store.Snapshot(), c.Param("node_id"), Direction(c.Query("direction")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) getAnomalyImpactHandler(c *gin.Context) {
	maxDepth := DefaultMaxDepth
	if raw := c.Query("max_depth"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			maxDepth = parsed
		}
	}

	report, err := AnalyzeAnomalyImpact(c.Request.Context(), a.store.Snapshot(), a.detector, c.Param("node_id"), maxDepth)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) getNodeColumnsHandler(c *gin.Context) {
	columns, err := NodeColumns(a.store.Snapshot(), c.Param("node_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// --- Edge handlers ---

func (a *API) createEdgeHandler(c *gin.Context) {
	var req struct {
		SourceNodeID string                 `json:"source_node_id" binding:"required"`
		TargetNodeID string                 `json:"target_node_id" binding:"required"`
		EdgeType     EdgeType               `json:"edge_type" binding:"required"`
		Metadata     map[string]interface{} `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeInvalidJSON, Message: "invalid input: " + err.Error()})
		return
	}

	edge, err := a.store.CreateEdge(EdgeSpec{
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		EdgeType:     req.EdgeType,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func (a *API) deleteEdgeHandler(c *gin.Context) {
	edgeID := c.Param("edge_id")
	if err := a.store.DeleteEdge(edgeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": edgeID})
}

func (a *API) getEdgeColumnMappingsHandler(c *gin.Context) {
	mappings, err := EdgeColumnMappings(a.store.Snapshot(), c.Param("edge_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}

// --- Column impact handler ---

func (a *API) getColumnImpactHandler(c *gin.Context) {
	report, err := AnalyzeColumnImpact(a.store.Snapshot(), c.Query("node_id"), c.Query("column"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- OpenLineage handlers ---

type exportRequest struct {
	SourceID string `json:"source_id"`
}

// exportGraph resolves the export scope. A missing or unknown source_id
// degrades to the whole graph: export is best-effort observability, not a
// transactional operation.
func (a *API) exportGraph(c *gin.Context) Graph {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SourceID == "" {
		return a.store.Snapshot()
	}
	graph, err := a.store.SourceGraph(req.SourceID)
	if err != nil {
		return a.store.Snapshot()
	}
	return graph
}

func (a *API) exportHandler(c *gin.Context) {
	batch := ExportOpenLineage(a.exportGraph(c))
	if a.publisher != nil {
		a.publisher.Publish(batch)
	}
	c.JSON(http.StatusOK, batch)
}

func (a *API) exportGranularHandler(c *gin.Context) {
	batch := ExportOpenLineageGranular(a.exportGraph(c))
	if a.publisher != nil {
		a.publisher.Publish(batch)
	}
	c.JSON(http.StatusOK, batch)
}

// --- Position handler ---

func (a *API) updatePositionsHandler(c *gin.Context) {
	var req struct {
		Updates []PositionUpdate `json:"updates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeInvalidJSON, Message: "invalid input: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": a.store.BatchUpdatePositions(req.Updates)})
}

// respondError maps the error taxonomy to HTTP status codes and the
// standard APIError envelope.
func respondError(c *gin.Context, err error) {
	var validation *ValidationError
	var notFound *NotFoundError
	var invalid *InvalidRequestError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeValidation, Message: err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, APIError{Code: ErrorCodeNotFound, Message: err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, APIError{Code: ErrorCodeInvalidRequest, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, APIError{Code: ErrorCodeInternalServerError, Message: err.Error()})
	}
}
