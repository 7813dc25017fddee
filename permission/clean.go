package permission

// CleanReport summarizes one cleanup pass over stored permissions.
type CleanReport struct {
	// Scanned is the number of permissions examined.
	Scanned int `json:"scanned"`
	// Deleted is the number of permissions removed because their action is
	// no longer registered.
	Deleted int `json:"deleted"`
	// Updated is the number of permissions rewritten after dropping
	// unknown conditions.
	Updated int `json:"updated"`
}

// Changed reports whether the pass modified anything.
func (r CleanReport) Changed() bool { return r.Deleted > 0 || r.Updated > 0 }
