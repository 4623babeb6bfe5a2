package graph

import (
	"context"

	"wanlens/internal/domain"
)

// PathResult describes the cheapest path between two devices
type PathResult struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	// TotalWeight is the strategy cost that selected the path
	TotalWeight float64 `json:"totalWeight"`
	// TotalLatencyUs sums edge latency regardless of strategy
	TotalLatencyUs float64 `json:"totalLatencyUs"`
	TotalHops      int     `json:"totalHops"`
	// MinBandwidthGbps is the bottleneck capacity, nil if any edge lacks one
	MinBandwidthGbps *float64 `json:"minBandwidthGbps"`
	// PathReliability is the fraction of HEALTHY edges; 1 for an empty path
	PathReliability float64  `json:"pathReliability"`
	Strategy        Strategy `json:"strategy"`
	Source          Node     `json:"source"`
	Destination     Node     `json:"destination"`
}

// ctxCheckInterval is how many queue pops happen between context checks
const ctxCheckInterval = 1024

// ShortestPath runs Dijkstra from sourceID to destinationID. It returns nil
// when either id is unknown or no path exists.
func ShortestPath(g *Graph, sourceID, destinationID string) *PathResult {
	res, _ := ShortestPathContext(context.Background(), g, sourceID, destinationID)
	return res
}

// ShortestPathContext is ShortestPath with cancellation. The graph is only
// read; all search state is local to the call.
func ShortestPathContext(ctx context.Context, g *Graph, sourceID, destinationID string) (*PathResult, error) {
	if g == nil || !g.HasNode(sourceID) || !g.HasNode(destinationID) {
		return nil, nil
	}

	dist := map[string]float64{sourceID: 0}
	prev := make(map[string]int) // node -> index of edge used to reach it
	visited := make(map[string]bool, len(g.Nodes))

	pq := NewQueue[string]()
	pq.Enqueue(sourceID, 0)

	pops := 0
	for !pq.IsEmpty() {
		if pops++; pops%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		u, d, _ := pq.Dequeue()
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == destinationID {
			break
		}

		for _, ei := range g.Adjacency[u] {
			e := &g.Edges[ei]
			v := e.Other(u)
			if visited[v] {
				continue
			}
			nd := d + e.Weight
			if old, seen := dist[v]; !seen || nd < old {
				dist[v] = nd
				prev[v] = ei
				pq.Enqueue(v, nd)
			}
		}
	}

	if !visited[destinationID] {
		return nil, nil
	}

	return buildResult(g, sourceID, destinationID, dist[destinationID], prev), nil
}

func buildResult(g *Graph, sourceID, destinationID string, weight float64, prev map[string]int) *PathResult {
	var edges []Edge
	for cur := destinationID; cur != sourceID; {
		e := g.Edges[prev[cur]]
		edges = append(edges, e)
		cur = e.Other(cur)
	}
	// reverse into source -> destination order
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	res := &PathResult{
		Nodes:           []Node{*g.Nodes[sourceID]},
		Edges:           make([]Edge, 0, len(edges)),
		TotalWeight:     weight,
		TotalHops:       len(edges),
		PathReliability: 1,
		Strategy:        g.Strategy,
		Source:          *g.Nodes[sourceID],
		Destination:     *g.Nodes[destinationID],
	}

	cur := sourceID
	healthy := 0
	bottleneckKnown := len(edges) > 0
	var bottleneck float64
	for i, e := range edges {
		cur = e.Other(cur)
		res.Nodes = append(res.Nodes, *g.Nodes[cur])
		res.Edges = append(res.Edges, e)
		res.TotalLatencyUs += e.LatencyUs

		if e.HealthStatus == domain.HealthHealthy {
			healthy++
		}
		if e.BandwidthGbps == nil {
			bottleneckKnown = false
		} else if i == 0 || *e.BandwidthGbps < bottleneck {
			bottleneck = *e.BandwidthGbps
		}
	}

	if len(edges) > 0 {
		res.PathReliability = float64(healthy) / float64(len(edges))
	}
	if bottleneckKnown {
		res.MinBandwidthGbps = &bottleneck
	}

	return res
}
