package domain

// IsisAdjacency is one metric reported for an adjacency interface address
type IsisAdjacency struct {
	Address  string `json:"address"`
	Metric   uint32 `json:"metric"`
	Hostname string `json:"hostname,omitempty"`
	LSPID    string `json:"lsp_id,omitempty"`
}
