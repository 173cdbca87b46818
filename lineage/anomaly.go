package lineage

import (
	"context"
	"log"
)

// AnomalyDetector is the external anomaly-detection collaborator. It reports
// the most recent status for a data source. A nil status with a nil error
// means the service has no data for that source.
type AnomalyDetector interface {
	StatusForSource(ctx context.Context, sourceID string) (*AnomalyStatus, error)
}

// Severity aggregation policy. The thresholds are configurable policy, not
// domain truth; they match the current product defaults.
const (
	// criticalHighCount is the number of high-severity downstream nodes
	// that escalates a high-status source to an overall critical report.
	criticalHighCount = 3
	// mediumCount is the number of medium-severity downstream nodes that
	// lifts the overall report to medium on its own.
	mediumCount = 3
)

// Depth bounds for anomaly impact analysis.
const (
	DefaultMaxDepth = 3
	MaxDepthLimit   = 10
)

// AttachAnomalyOverlay annotates every node of the graph with its anomaly
// status. Nodes without a linked source, and sources the detector has no
// data for, carry status unknown. The overlay is read-only; detector
// failures degrade to unknown rather than failing the call.
func AttachAnomalyOverlay(ctx context.Context, g Graph, detector AnomalyDetector) AnnotatedGraph {
	annotated := AnnotatedGraph{
		Nodes: make([]AnnotatedNode, 0, len(g.Nodes)),
		Edges: g.Edges,
	}
	for _, node := range g.Nodes {
		annotated.Nodes = append(annotated.Nodes, AnnotatedNode{
			LineageNode:   node,
			AnomalyStatus: lookupStatus(ctx, detector, node.SourceID),
		})
	}
	return annotated
}

func lookupStatus(ctx context.Context, detector AnomalyDetector, sourceID string) *AnomalyStatus {
	unknown := &AnomalyStatus{Status: AnomalyStatusUnknown}
	if sourceID == "" || detector == nil {
		return unknown
	}
	status, err := detector.StatusForSource(ctx, sourceID)
	if err != nil {
		log.Printf("anomaly detector lookup failed for source %s: %v", sourceID, err)
		return unknown
	}
	if status == nil {
		return unknown
	}
	return status
}

// AnalyzeAnomalyImpact computes the downstream blast radius of the anomaly
// on the given node's linked source, bounded by maxDepth BFS levels. The
// node must exist and must have a linked source.
func AnalyzeAnomalyImpact(ctx context.Context, g Graph, detector AnomalyDetector, nodeID string, maxDepth int) (AnomalyImpactReport, error) {
	adj := buildAdjacency(g)
	root, ok := adj.nodes[nodeID]
	if !ok {
		return AnomalyImpactReport{}, &NotFoundError{Resource: "node", ID: nodeID}
	}
	if root.SourceID == "" {
		return AnomalyImpactReport{}, &InvalidRequestError{Message: "anomaly impact analysis requires a linked source"}
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth > MaxDepthLimit {
		maxDepth = MaxDepthLimit
	}

	sourceStatus := lookupStatus(ctx, detector, root.SourceID)

	// Level-by-level BFS so every reached node knows its hop distance and
	// the walk stops exactly at maxDepth, even on cyclic graphs.
	visited := map[string]bool{root.ID: true}
	frontier := []string{root.ID}
	var impacted []ImpactedNode

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, childID := range adj.children[id] {
				if visited[childID] {
					continue
				}
				visited[childID] = true
				child, ok := adj.nodes[childID]
				if !ok {
					continue
				}
				impacted = append(impacted, ImpactedNode{
					LineageNode:    child,
					ImpactSeverity: nodeSeverity(sourceStatus.Status, depth, len(adj.children[childID])),
					Depth:          depth,
					AnomalyStatus:  lookupStatus(ctx, detector, child.SourceID),
				})
				next = append(next, childID)
			}
		}
		frontier = next
	}

	var path []LineageEdge
	for _, edge := range g.Edges {
		if visited[edge.SourceNodeID] && visited[edge.TargetNodeID] {
			path = append(path, edge)
		}
	}

	report := AnomalyImpactReport{
		SourceNode:      AnnotatedNode{LineageNode: root, AnomalyStatus: sourceStatus},
		ImpactedNodes:   impacted,
		PropagationPath: path,
		OverallSeverity: overallSeverity(sourceStatus.Status, impacted),
		ImpactedCount:   len(impacted),
		MaxDepth:        maxDepth,
	}
	if report.ImpactedNodes == nil {
		report.ImpactedNodes = []ImpactedNode{}
	}
	if report.PropagationPath == nil {
		report.PropagationPath = []LineageEdge{}
	}
	return report, nil
}

// nodeSeverity derives a downstream node's impact severity from the source's
// anomaly status and a topological modifier: nodes one hop away or fanning
// out to two or more consumers take the stronger severity of the source's
// band.
func nodeSeverity(source AnomalyStatusLevel, depth, fanout int) ImpactSeverity {
	amplified := depth == 1 || fanout >= 2
	switch source {
	case AnomalyStatusHigh:
		if amplified {
			return SeverityCritical
		}
		return SeverityHigh
	case AnomalyStatusMedium:
		if amplified {
			return SeverityHigh
		}
		return SeverityMedium
	case AnomalyStatusLow, AnomalyStatusClean:
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// overallSeverity aggregates per-node severities into one ranking for the
// whole report.
func overallSeverity(source AnomalyStatusLevel, impacted []ImpactedNode) ImpactSeverity {
	if source == AnomalyStatusUnknown || source == "" {
		return SeverityNone
	}

	var criticals, highs, mediums int
	for _, node := range impacted {
		switch node.ImpactSeverity {
		case SeverityCritical:
			criticals++
		case SeverityHigh:
			highs++
		case SeverityMedium:
			mediums++
		}
	}

	switch {
	case criticals > 0, highs >= criticalHighCount && source == AnomalyStatusHigh:
		return SeverityCritical
	case highs > 0:
		return SeverityHigh
	case mediums >= mediumCount, mediums > 0 && source == AnomalyStatusMedium:
		return SeverityMedium
	case len(impacted) > 0:
		return SeverityLow
	}

	// Nothing downstream: the report mirrors the source's own status.
	switch source {
	case AnomalyStatusHigh:
		return SeverityHigh
	case AnomalyStatusMedium:
		return SeverityMedium
	case AnomalyStatusLow, AnomalyStatusClean:
		return SeverityLow
	default:
		return SeverityNone
	}
}
