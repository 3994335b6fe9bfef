package model

// UserTarget is the desired POSIX identity for one directory user. Applying it
// replaces the user's posixAccounts list with a single entry.
type UserTarget struct {
	Email         string
	UID           string
	GID           string
	HomeDirectory string
	Shell         string
}

// GroupTarget is the desired gid for one directory group.
type GroupTarget struct {
	Email string
	GID   string
}

// Targets is the ordered set of principals a run processes. Order is the order
// the principals were declared in. Inspect lists principals that are only
// read; it never feeds an update run.
type Targets struct {
	Users   []UserTarget
	Groups  []GroupTarget
	Inspect Principals
}

// Principals names directory users and groups by email.
type Principals struct {
	Users  []string
	Groups []string
}

// Len is the number of named principals.
func (p Principals) Len() int {
	return len(p.Users) + len(p.Groups)
}

// InspectPrincipals returns the principals an inspection reads: the inspect
// list when one is declared, otherwise every update target.
func (t Targets) InspectPrincipals() Principals {
	if t.Inspect.Len() > 0 {
		return t.Inspect
	}
	return Principals{Users: t.UserEmails(), Groups: t.GroupEmails()}
}

// UserEmails returns the user identifiers in declaration order.
func (t Targets) UserEmails() []string {
	out := make([]string, 0, len(t.Users))
	for _, u := range t.Users {
		out = append(out, u.Email)
	}
	return out
}

// GroupEmails returns the group identifiers in declaration order.
func (t Targets) GroupEmails() []string {
	out := make([]string, 0, len(t.Groups))
	for _, g := range t.Groups {
		out = append(out, g.Email)
	}
	return out
}

// Len is the number of update targets in the set.
func (t Targets) Len() int {
	return len(t.Users) + len(t.Groups)
}
