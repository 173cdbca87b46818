package lineage

import "time"

// NodeType classifies a node's role in the data flow.
type NodeType string

const (
	NodeTypeSource    NodeType = "source"
	NodeTypeTransform NodeType = "transform"
	NodeTypeSink      NodeType = "sink"
)

// Valid reports whether the node type is one of the known values.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeSource, NodeTypeTransform, NodeTypeSink:
		return true
	}
	return false
}

// EdgeType describes the relationship a directed edge represents.
type EdgeType string

const (
	EdgeTypeDerivesFrom  EdgeType = "derives_from"
	EdgeTypeTransformsTo EdgeType = "transforms_to"
	EdgeTypeFeedsInto    EdgeType = "feeds_into"
)

// Valid reports whether the edge type is one of the known values.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeDerivesFrom, EdgeTypeTransformsTo, EdgeTypeFeedsInto:
		return true
	}
	return false
}

// Direction selects which way a traversal walks the edge relation.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

// LineageNode is a node in the lineage graph. ID is immutable once created.
// SourceID, when set, links the node to an external data source and enables
// the anomaly overlay for it.
type LineageNode struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	NodeType  NodeType               `json:"node_type"`
	SourceID  string                 `json:"source_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PositionX float64                `json:"position_x"`
	PositionY float64                `json:"position_y"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// LineageEdge is a directed edge between two existing nodes.
type LineageEdge struct {
	ID           string                 `json:"id"`
	SourceNodeID string                 `json:"source_node_id"`
	TargetNodeID string                 `json:"target_node_id"`
	EdgeType     EdgeType               `json:"edge_type"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Graph is a snapshot of nodes and edges, as returned to clients.
type Graph struct {
	Nodes []LineageNode `json:"nodes"`
	Edges []LineageEdge `json:"edges"`
}

// AnomalyStatusLevel is the per-source status reported by the external
// anomaly-detection service.
type AnomalyStatusLevel string

const (
	AnomalyStatusUnknown AnomalyStatusLevel = "unknown"
	AnomalyStatusClean   AnomalyStatusLevel = "clean"
	AnomalyStatusLow     AnomalyStatusLevel = "low"
	AnomalyStatusMedium  AnomalyStatusLevel = "medium"
	AnomalyStatusHigh    AnomalyStatusLevel = "high"
)

// AnomalyStatus is the most recent detection result for a data source.
// It is derived state, never persisted in the graph store.
type AnomalyStatus struct {
	Status          AnomalyStatusLevel `json:"status"`
	AnomalyRate     *float64           `json:"anomaly_rate"`
	AnomalyCount    *int               `json:"anomaly_count"`
	LastDetectionAt *time.Time         `json:"last_detection_at"`
	Algorithm       string             `json:"algorithm,omitempty"`
}

// AnnotatedNode is a graph node with its anomaly overlay attached.
type AnnotatedNode struct {
	LineageNode
	AnomalyStatus *AnomalyStatus `json:"anomaly_status"`
}

// AnnotatedGraph is a graph whose nodes carry anomaly annotations.
type AnnotatedGraph struct {
	Nodes []AnnotatedNode `json:"nodes"`
	Edges []LineageEdge   `json:"edges"`
}

// ImpactSeverity ranks how strongly a downstream node is affected by an
// upstream anomaly.
type ImpactSeverity string

const (
	SeverityNone     ImpactSeverity = "none"
	SeverityUnknown  ImpactSeverity = "unknown"
	SeverityLow      ImpactSeverity = "low"
	SeverityMedium   ImpactSeverity = "medium"
	SeverityHigh     ImpactSeverity = "high"
	SeverityCritical ImpactSeverity = "critical"
)

// ImpactResult holds the reachable sets computed by impact analysis.
type ImpactResult struct {
	Upstream   []LineageNode `json:"upstream"`
	Downstream []LineageNode `json:"downstream"`
}

// ImpactedNode is one downstream node in an anomaly impact report.
type ImpactedNode struct {
	LineageNode
	ImpactSeverity ImpactSeverity `json:"impact_severity"`
	Depth          int            `json:"depth"`
	AnomalyStatus  *AnomalyStatus `json:"anomaly_status,omitempty"`
}

// AnomalyImpactReport is the blast-radius view for a single source node.
type AnomalyImpactReport struct {
	SourceNode      AnnotatedNode  `json:"source_node"`
	ImpactedNodes   []ImpactedNode `json:"impacted_nodes"`
	PropagationPath []LineageEdge  `json:"propagation_path"`
	OverallSeverity ImpactSeverity `json:"overall_severity"`
	ImpactedCount   int            `json:"impacted_count"`
	MaxDepth        int            `json:"max_depth"`
}

// ColumnDescriptor describes one column of a node's schema. Derived on
// demand, never persisted. Field names follow the front-end contract.
type ColumnDescriptor struct {
	Name         string   `json:"name"`
	DataType     string   `json:"dataType"`
	Nullable     bool     `json:"nullable"`
	IsPrimaryKey bool     `json:"isPrimaryKey"`
	IsForeignKey bool     `json:"isForeignKey"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// TransformationType classifies how a column crosses an edge.
type TransformationType string

const (
	TransformDirect     TransformationType = "direct"
	TransformDerived    TransformationType = "derived"
	TransformAggregated TransformationType = "aggregated"
	TransformFiltered   TransformationType = "filtered"
	TransformJoined     TransformationType = "joined"
	TransformRenamed    TransformationType = "renamed"
	TransformCast       TransformationType = "cast"
	TransformComputed   TransformationType = "computed"
)

// ColumnMapping maps one source column to one target column across an edge.
type ColumnMapping struct {
	SourceColumn       string             `json:"sourceColumn"`
	TargetColumn       string             `json:"targetColumn"`
	TransformationType TransformationType `json:"transformationType"`
	Expression         string             `json:"expression,omitempty"`
	Confidence         float64            `json:"confidence"`
}

// ColumnImpactEntry is one downstream node touched by a column-level trace.
type ColumnImpactEntry struct {
	NodeID             string             `json:"nodeId"`
	NodeName           string             `json:"nodeName"`
	NodeType           NodeType           `json:"nodeType"`
	Column             string             `json:"column"`
	TransformationType TransformationType `json:"transformationType"`
	Depth              int                `json:"depth"`
}

// ColumnImpactHop is one link of the linearized representative path.
type ColumnImpactHop struct {
	FromNode   string `json:"fromNode"`
	FromColumn string `json:"fromColumn"`
	ToNode     string `json:"toNode"`
	ToColumn   string `json:"toColumn"`
}

// ColumnImpactReport is the result of tracing a single column downstream.
type ColumnImpactReport struct {
	NodeID          string              `json:"nodeId"`
	Column          string              `json:"column"`
	ImpactedColumns []ColumnImpactEntry `json:"impactedColumns"`
	ImpactPath      []ColumnImpactHop   `json:"impactPath"`
	TotalImpacted   int                 `json:"totalImpacted"`
}
