package engine

// BlockedSet computes the nodes to skip: every explicitly paused node plus
// everything reachable downstream of one. Blocked nodes do not run and are
// reported as cached for accounting purposes.
func BlockedSet(g *Graph, paused []string) map[string]bool {
	return g.DownstreamClosure(paused)
}
