package lineage

import "strings"

// maxImpactPathHops caps the linearized representative path returned by
// column impact analysis. Display bound only; the full traversal is not
// limited by it.
const maxImpactPathHops = 5

// NodeColumns derives the column set for a node. Nodes that declare
// schema_fields in their metadata expose exactly those; otherwise a fixed
// default schema per node type applies (sources expose raw fields,
// transforms and sinks expose derived and aggregate fields).
func NodeColumns(g Graph, nodeID string) ([]ColumnDescriptor, error) {
	var node *LineageNode
	for i := range g.Nodes {
		if g.Nodes[i].ID == nodeID {
			node = &g.Nodes[i]
			break
		}
	}
	if node == nil {
		return nil, &NotFoundError{Resource: "node", ID: nodeID}
	}
	return columnsFor(*node), nil
}

func columnsFor(node LineageNode) []ColumnDescriptor {
	if fields := schemaFields(node); len(fields) > 0 {
		columns := make([]ColumnDescriptor, 0, len(fields))
		for _, name := range fields {
			columns = append(columns, describeColumn(name, node.NodeType))
		}
		return columns
	}

	var names []string
	switch node.NodeType {
	case NodeTypeSource:
		names = []string{"id", "name", "value", "recorded_at"}
	case NodeTypeTransform:
		names = []string{"id", "derived_value", "quality_score", "processed_at"}
	case NodeTypeSink:
		names = []string{"id", "aggregated_value", "record_count", "exported_at"}
	}
	columns := make([]ColumnDescriptor, 0, len(names))
	for _, name := range names {
		columns = append(columns, describeColumn(name, node.NodeType))
	}
	return columns
}

func schemaFields(node LineageNode) []string {
	raw, ok := node.Metadata["schema_fields"]
	if !ok {
		return nil
	}
	var fields []string
	switch v := raw.(type) {
	case []string:
		fields = v
	case []interface{}:
		for _, f := range v {
			if s, ok := f.(string); ok && s != "" {
				fields = append(fields, s)
			}
		}
	}
	return fields
}

// describeColumn infers a descriptor from the column name alone. The
// inference is deterministic so repeated calls on the same graph agree.
func describeColumn(name string, nodeType NodeType) ColumnDescriptor {
	col := ColumnDescriptor{Name: name, DataType: "string", Nullable: true}

	switch {
	case name == "id":
		col.IsPrimaryKey = true
		col.Nullable = false
	case strings.HasSuffix(name, "_id"):
		col.IsForeignKey = true
	case strings.HasSuffix(name, "_at") || strings.HasSuffix(name, "_date"):
		col.DataType = "timestamp"
	case strings.HasPrefix(name, "is_") || strings.HasPrefix(name, "has_"):
		col.DataType = "boolean"
	case strings.HasSuffix(name, "_count") || strings.HasSuffix(name, "_total"):
		col.DataType = "integer"
	case strings.Contains(name, "value") || strings.Contains(name, "rate") ||
		strings.Contains(name, "score") || strings.Contains(name, "amount"):
		col.DataType = "float"
	}

	switch nodeType {
	case NodeTypeSource:
		col.Tags = []string{"raw"}
	case NodeTypeTransform:
		col.Tags = []string{"derived"}
	case NodeTypeSink:
		col.Tags = []string{"output"}
	}
	return col
}

// EdgeColumnMappings derives the per-column transformations across an edge
// from the column sets of its endpoints.
func EdgeColumnMappings(g Graph, edgeID string) ([]ColumnMapping, error) {
	var edge *LineageEdge
	for i := range g.Edges {
		if g.Edges[i].ID == edgeID {
			edge = &g.Edges[i]
			break
		}
	}
	if edge == nil {
		return nil, &NotFoundError{Resource: "edge", ID: edgeID}
	}

	adj := buildAdjacency(g)
	source, okS := adj.nodes[edge.SourceNodeID]
	target, okT := adj.nodes[edge.TargetNodeID]
	if !okS || !okT {
		return []ColumnMapping{}, nil
	}
	return mapColumns(columnsFor(source), columnsFor(target), edge.EdgeType), nil
}

// mapColumns pairs each target column with its most plausible origin.
// Name equality wins, then substring derivation, then aggregate naming;
// anything left is treated as computed from the source's lead column.
func mapColumns(sourceCols, targetCols []ColumnDescriptor, edgeType EdgeType) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(targetCols))
	for _, tc := range targetCols {
		if sc, ok := findColumn(sourceCols, tc.Name); ok {
			m := ColumnMapping{
				SourceColumn:       sc.Name,
				TargetColumn:       tc.Name,
				TransformationType: TransformDirect,
				Confidence:         1.0,
			}
			if sc.DataType != tc.DataType {
				m.TransformationType = TransformCast
				m.Expression = "CAST(" + sc.Name + " AS " + tc.DataType + ")"
				m.Confidence = 0.9
			} else if edgeType == EdgeTypeDerivesFrom && !tc.IsPrimaryKey {
				m.TransformationType = TransformDerived
				m.Confidence = 0.9
			}
			mappings = append(mappings, m)
			continue
		}

		if sc, ok := derivationOrigin(sourceCols, tc.Name); ok {
			mappings = append(mappings, ColumnMapping{
				SourceColumn:       sc,
				TargetColumn:       tc.Name,
				TransformationType: TransformDerived,
				Expression:         "transform(" + sc + ")",
				Confidence:         0.8,
			})
			continue
		}

		if isAggregateName(tc.Name) {
			mappings = append(mappings, ColumnMapping{
				SourceColumn:       leadColumn(sourceCols),
				TargetColumn:       tc.Name,
				TransformationType: TransformAggregated,
				Expression:         "aggregate(" + leadColumn(sourceCols) + ")",
				Confidence:         0.7,
			})
			continue
		}

		mappings = append(mappings, ColumnMapping{
			SourceColumn:       leadColumn(sourceCols),
			TargetColumn:       tc.Name,
			TransformationType: TransformComputed,
			Confidence:         0.5,
		})
	}
	return mappings
}

func findColumn(cols []ColumnDescriptor, name string) (ColumnDescriptor, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// derivationOrigin looks for a source column the target name is built from,
// e.g. derived_value <- value. Longest match wins so value beats id inside
// aggregated_value_id-style names.
func derivationOrigin(cols []ColumnDescriptor, targetName string) (string, bool) {
	best := ""
	for _, c := range cols {
		if c.Name == "id" || len(c.Name) <= len(best) {
			continue
		}
		if strings.Contains(targetName, c.Name) {
			best = c.Name
		}
	}
	return best, best != ""
}

func isAggregateName(name string) bool {
	return strings.HasPrefix(name, "aggregated_") || strings.HasPrefix(name, "total_") ||
		strings.HasPrefix(name, "avg_") || strings.HasSuffix(name, "_count")
}

func leadColumn(cols []ColumnDescriptor) string {
	for _, c := range cols {
		if !c.IsPrimaryKey {
			return c.Name
		}
	}
	if len(cols) > 0 {
		return cols[0].Name
	}
	return "id"
}

// AnalyzeColumnImpact traces one column of a node through downstream edges.
// A hop is taken only where an edge mapping consumes the current column, so
// the trace follows actual column flow rather than plain reachability.
func AnalyzeColumnImpact(g Graph, nodeID, column string) (ColumnImpactReport, error) {
	if nodeID == "" || column == "" {
		return ColumnImpactReport{}, &InvalidRequestError{Message: "node_id and column are required"}
	}
	adj := buildAdjacency(g)
	root, ok := adj.nodes[nodeID]
	if !ok {
		return ColumnImpactReport{}, &NotFoundError{Resource: "node", ID: nodeID}
	}

	type hop struct {
		nodeID string
		column string
		depth  int
	}

	visited := map[string]bool{root.ID + "|" + column: true}
	seenNodes := map[string]bool{root.ID: true}
	queue := []hop{{nodeID: root.ID, column: column, depth: 0}}
	var impacted []ColumnImpactEntry

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range adj.outEdges[current.nodeID] {
			target, ok := adj.nodes[edge.TargetNodeID]
			if !ok {
				continue
			}
			mapping, ok := matchMapping(adj, edge, current.column)
			if !ok {
				continue
			}
			key := target.ID + "|" + mapping.TargetColumn
			if visited[key] {
				continue
			}
			visited[key] = true

			if !seenNodes[target.ID] {
				seenNodes[target.ID] = true
				impacted = append(impacted, ColumnImpactEntry{
					NodeID:             target.ID,
					NodeName:           target.Name,
					NodeType:           target.NodeType,
					Column:             mapping.TargetColumn,
					TransformationType: mapping.TransformationType,
					Depth:              current.depth + 1,
				})
			}
			queue = append(queue, hop{nodeID: target.ID, column: mapping.TargetColumn, depth: current.depth + 1})
		}
	}

	report := ColumnImpactReport{
		NodeID:          root.ID,
		Column:          column,
		ImpactedColumns: impacted,
		ImpactPath:      representativePath(adj, root.ID, column),
		TotalImpacted:   len(impacted),
	}
	if report.ImpactedColumns == nil {
		report.ImpactedColumns = []ColumnImpactEntry{}
	}
	if report.ImpactPath == nil {
		report.ImpactPath = []ColumnImpactHop{}
	}
	return report, nil
}

// matchMapping finds the mapping on the edge that consumes the given source
// column, if any.
func matchMapping(adj *adjacency, edge LineageEdge, sourceColumn string) (ColumnMapping, bool) {
	source, okS := adj.nodes[edge.SourceNodeID]
	target, okT := adj.nodes[edge.TargetNodeID]
	if !okS || !okT {
		return ColumnMapping{}, false
	}
	for _, m := range mapColumns(columnsFor(source), columnsFor(target), edge.EdgeType) {
		if m.SourceColumn == sourceColumn {
			return m, true
		}
	}
	return ColumnMapping{}, false
}

// representativePath follows the first matching hop at each step, capped at
// maxImpactPathHops for display.
func representativePath(adj *adjacency, nodeID, column string) []ColumnImpactHop {
	var path []ColumnImpactHop
	visited := map[string]bool{nodeID: true}
	currentNode, currentColumn := nodeID, column

	for len(path) < maxImpactPathHops {
		advanced := false
		for _, edge := range adj.outEdges[currentNode] {
			if visited[edge.TargetNodeID] {
				continue
			}
			mapping, ok := matchMapping(adj, edge, currentColumn)
			if !ok {
				continue
			}
			fromName := currentNode
			if n, ok := adj.nodes[currentNode]; ok {
				fromName = n.Name
			}
			toName := edge.TargetNodeID
			if n, ok := adj.nodes[edge.TargetNodeID]; ok {
				toName = n.Name
			}
			path = append(path, ColumnImpactHop{
				FromNode:   fromName,
				FromColumn: currentColumn,
				ToNode:     toName,
				ToColumn:   mapping.TargetColumn,
			})
			visited[edge.TargetNodeID] = true
			currentNode, currentColumn = edge.TargetNodeID, mapping.TargetColumn
			advanced = true
			break
		}
		if !advanced {
			break
		}
	}
	return path
}
