package hierarchy

// Snapshot is one parsed UI hierarchy as returned by the backend's dump
// endpoint. Snapshots are replaced wholesale on every refresh.
type Snapshot struct {
	Platform   string `json:"platform"`
	TotalNodes int    `json:"total_nodes"`
	Root       *Node  `json:"hierarchy"`
}

// Find resolves a node path against the snapshot root.
func (s *Snapshot) Find(path []int) *Node {
	if s == nil || s.Root == nil {
		return nil
	}
	// paths reported by the backend are rooted at the snapshot root itself
	if len(path) == 0 {
		return s.Root
	}
	return s.Root.FindByPath(path)
}
