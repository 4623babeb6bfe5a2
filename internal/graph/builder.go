// Package graph builds a weighted topology graph from correlated links and
// answers shortest-path queries over it.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"wanlens/internal/domain"
)

// Strategy selects how edge weights are derived from links
type Strategy string

const (
	StrategyLatency   Strategy = "latency"
	StrategyHops      Strategy = "hops"
	StrategyBandwidth Strategy = "bandwidth"
)

// Strategies lists every supported strategy
var Strategies = []Strategy{StrategyLatency, StrategyHops, StrategyBandwidth}

// ErrUnknownStrategy is returned for a strategy name that is not supported
var ErrUnknownStrategy = errors.New("unknown path strategy")

// ParseStrategy parses a strategy name. An empty name means latency.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyLatency, nil
	case StrategyLatency, StrategyHops, StrategyBandwidth:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Valid reports whether s is a supported strategy
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLatency, StrategyHops, StrategyBandwidth:
		return true
	}
	return false
}

// Node is a device in the topology graph
type Node struct {
	ID           string  `json:"id"`
	LocationPK   string  `json:"locationPk"`
	LocationCode string  `json:"locationCode"`
	LocationName string  `json:"locationName"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// Edge is an undirected link between two devices
type Edge struct {
	ID            string              `json:"id"`
	Code          string              `json:"code"`
	Source        string              `json:"source"`
	Target        string              `json:"target"`
	Weight        float64             `json:"weight"`
	LatencyUs     float64             `json:"latencyUs"`
	BandwidthGbps *float64            `json:"bandwidthGbps,omitempty"`
	HealthStatus  domain.HealthStatus `json:"healthStatus"`
}

// Other returns the endpoint of e opposite to id
func (e *Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Graph is an undirected multigraph. It is read-only once built and may be
// shared between concurrent path queries.
type Graph struct {
	Strategy Strategy
	Nodes    map[string]*Node
	Edges    []Edge
	// Adjacency maps a node id to the indexes of its incident edges
	Adjacency map[string][]int
}

// HasNode reports whether id is a node of the graph
func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// Neighbors returns the ids adjacent to id, one per incident edge
func (g *Graph) Neighbors(id string) []string {
	idx := g.Adjacency[id]
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i].Other(id))
	}
	return out
}

// Build creates the graph for strategy. Every link becomes one edge and every
// device it references becomes a node. Edges the strategy cannot weigh get
// UnknownWeight.
func Build(links []domain.Link, strategy Strategy) *Graph {
	g := &Graph{
		Strategy:  strategy,
		Nodes:     make(map[string]*Node),
		Edges:     make([]Edge, 0, len(links)),
		Adjacency: make(map[string][]int),
	}

	var unknown []int
	knownTotal := 0.0

	for i := range links {
		l := &links[i]
		g.addNode(l.SideA)
		g.addNode(l.SideZ)

		edge := Edge{
			ID:            l.PK,
			Code:          l.Code,
			Source:        l.SideA.DeviceCode,
			Target:        l.SideZ.DeviceCode,
			LatencyUs:     EdgeLatencyUs(l),
			BandwidthGbps: l.BandwidthGbps,
			HealthStatus:  l.HealthStatus,
		}
		idx := len(g.Edges)
		if w, ok := Weight(strategy, edge.LatencyUs, edge.BandwidthGbps); ok {
			edge.Weight = w
			knownTotal += w
		} else {
			unknown = append(unknown, idx)
		}

		g.Edges = append(g.Edges, edge)
		g.Adjacency[edge.Source] = append(g.Adjacency[edge.Source], idx)
		if edge.Target != edge.Source {
			g.Adjacency[edge.Target] = append(g.Adjacency[edge.Target], idx)
		}
	}

	if len(unknown) > 0 {
		w := UnknownWeight(knownTotal)
		for _, idx := range unknown {
			g.Edges[idx].Weight = w
		}
	}

	return g
}

func (g *Graph) addNode(ep domain.Endpoint) {
	if _, ok := g.Nodes[ep.DeviceCode]; ok {
		return
	}
	g.Nodes[ep.DeviceCode] = &Node{
		ID:           ep.DeviceCode,
		LocationPK:   ep.LocationPK,
		LocationCode: ep.LocationCode,
		LocationName: ep.LocationName,
		Lat:          ep.Lat,
		Lng:          ep.Lng,
	}
}

// EdgeLatencyUs is the latency reported for a link: measured p95 when
// available, otherwise the declared delay, otherwise 0.
func EdgeLatencyUs(l *domain.Link) float64 {
	if l.MeasuredP95Us != nil {
		return *l.MeasuredP95Us
	}
	if l.ExpectedDelayUs > 0 {
		return l.ExpectedDelayUs
	}
	return 0
}

// Weight computes an edge weight for strategy. ok is false when the link
// lacks the value the strategy needs.
// Bandwidth weight is 1000/Gbps, so higher capacity is always cheaper.
func Weight(strategy Strategy, latencyUs float64, bandwidthGbps *float64) (float64, bool) {
	switch strategy {
	case StrategyHops:
		return 1, true
	case StrategyBandwidth:
		if bandwidthGbps == nil || *bandwidthGbps <= 0 {
			return 0, false
		}
		return 1000 / *bandwidthGbps, true
	default:
		if latencyUs <= 0 {
			return 0, false
		}
		return latencyUs, true
	}
}

// UnknownWeight is the cost of an edge without a known weight. It exceeds
// the sum of every known edge weight in the graph, so any path over known
// edges is cheaper than a single unknown edge.
func UnknownWeight(knownTotal float64) float64 {
	return knownTotal + 1
}
