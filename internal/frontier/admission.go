package frontier

// Seen is the membership contract Admission needs.
// *membership.Filter satisfies it.
type Seen interface {
	Contains(key string) bool
	Add(key string)
}

// Admission gates pushes into a Frontier through a membership filter.
// The filter is updated at push time, so a key is enqueued at most once per
// session. A false positive in the filter suppresses a key; it never
// duplicates one.
type Admission struct {
	frontier *Frontier
	seen     Seen

	admitted int
	rejected int
}

// NewAdmission pairs f with seen.
func NewAdmission(f *Frontier, seen Seen) *Admission {
	return &Admission{frontier: f, seen: seen}
}

// Admit records key and pushes it if the filter has not seen it.
// It reports whether key was pushed.
func (a *Admission) Admit(key string) bool {
	if a.seen.Contains(key) {
		a.rejected++
		return false
	}
	a.seen.Add(key)
	a.frontier.Push(key)
	a.admitted++
	return true
}

// Frontier returns the underlying frontier.
func (a *Admission) Frontier() *Frontier {
	return a.frontier
}

// Admitted returns how many keys have been pushed.
func (a *Admission) Admitted() int {
	return a.admitted
}

// Rejected returns how many keys the filter reported as already seen.
func (a *Admission) Rejected() int {
	return a.rejected
}
