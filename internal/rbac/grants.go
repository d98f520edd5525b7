package rbac

// Grants is the set of permissions held by one user.
// The zero value grants nothing; all queries are safe on a nil Grants.
type Grants map[Permission]struct{}

// NewGrants builds a set from a list. Duplicates collapse.
func NewGrants(ps []Permission) Grants {
	g := make(Grants, len(ps))
	for _, p := range ps {
		g[p] = struct{}{}
	}
	return g
}

func (g Grants) Has(p Permission) bool {
	_, ok := g[p]
	return ok
}

// HasAny reports whether at least one of ps is granted.
// An empty ps is never satisfied; callers that mean "no restriction" must check for it themselves.
func (g Grants) HasAny(ps ...Permission) bool {
	for _, p := range ps {
		if g.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of ps is granted. An empty ps is vacuously satisfied.
func (g Grants) HasAll(ps ...Permission) bool {
	for _, p := range ps {
		if !g.Has(p) {
			return false
		}
	}
	return true
}

func (g Grants) Len() int { return len(g) }
