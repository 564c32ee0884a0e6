package model

// Viewer is whoever makes the request: Anonymous or Authenticated.
// The set is closed; callers switch on the concrete type.
type Viewer interface {
	viewer()
}

type Anonymous struct {
	LoginURL string
}

// Authenticated is a logged-in user. UsedBytes is zero until the viewer has
// been resolved against the quota ledger.
type Authenticated struct {
	ID        string
	UsedBytes int64
	LogoutURL string
}

func (Anonymous) viewer()     {}
func (Authenticated) viewer() {}
