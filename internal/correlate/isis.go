package correlate

import (
	"math"
	"net/netip"
	"strings"

	"wanlens/internal/codec"
	"wanlens/internal/domain"
)

// IsisIndex maps an adjacency interface address to the metrics reported for
// it, in discovery order.
type IsisIndex struct {
	byAddr map[string][]domain.IsisAdjacency
	count  int
}

// BuildIsisIndex flattens the level-2 database of the default VRF.
// Neighbors without a usable metric or address are ignored.
func BuildIsisIndex(doc *codec.ISISDocument) *IsisIndex {
	idx := &IsisIndex{byAddr: make(map[string][]domain.IsisAdjacency)}

	for _, lsp := range doc.DefaultLSPs() {
		for _, nbr := range lsp.Neighbors {
			metric, ok := isisMetric(nbr.Metric)
			if !ok {
				continue
			}
			for _, ifc := range nbr.InterfaceAddrs {
				addr := strings.TrimSpace(ifc.Address.Value)
				if !ifc.Address.Valid || addr == "" {
					continue
				}
				idx.byAddr[addr] = append(idx.byAddr[addr], domain.IsisAdjacency{
					Address:  addr,
					Metric:   metric,
					Hostname: lsp.Hostname.Name.Value,
					LSPID:    lsp.ID,
				})
				idx.count++
			}
		}
	}

	return idx
}

func isisMetric(m codec.OptFloat) (uint32, bool) {
	if !m.Valid || m.Value < 0 || m.Value > math.MaxUint32 || m.Value != math.Trunc(m.Value) {
		return 0, false
	}
	return uint32(m.Value), true
}

// Lookup returns the adjacencies reported for addr
func (x *IsisIndex) Lookup(addr string) []domain.IsisAdjacency {
	return x.byAddr[addr]
}

// Len returns the number of indexed adjacency entries
func (x *IsisIndex) Len() int {
	return x.count
}

// Addresses returns the number of distinct indexed addresses
func (x *IsisIndex) Addresses() int {
	return len(x.byAddr)
}

// Resolve returns the metric of the first entry found for the first address
// that has any entry.
func (x *IsisIndex) Resolve(addrs []string) (uint32, bool) {
	for _, a := range addrs {
		if entries := x.byAddr[a]; len(entries) > 0 {
			return entries[0].Metric, true
		}
	}
	return 0, false
}

// SplitSlash31 returns the two host addresses of an IPv4 /31 network, with
// the final bit cleared and then set. Anything else yields nil.
func SplitSlash31(tunnelNet string) []string {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(tunnelNet))
	if err != nil || !prefix.Addr().Is4() || prefix.Bits() != 31 {
		return nil
	}

	b := prefix.Addr().As4()
	b[3] &^= 1
	low := netip.AddrFrom4(b)
	b[3] |= 1
	high := netip.AddrFrom4(b)

	return []string{low.String(), high.String()}
}
