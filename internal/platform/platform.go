// Package platform defines the closed set of e-commerce platforms whose
// catalogs the matcher searches, and the adapter handles used to talk to them.
package platform

// ID identifies one e-commerce platform.
type ID string

const (
	SamsClub  ID = "sams_club"
	JDDaojia  ID = "jd_daojia"
	Freshippo ID = "freshippo"
	Meituan   ID = "meituan"
)

// All lists every known platform ID.
func All() []ID {
	return []ID{SamsClub, JDDaojia, Freshippo, Meituan}
}

// Valid reports whether id names a known platform.
func Valid(id ID) bool {
	switch id {
	case SamsClub, JDDaojia, Freshippo, Meituan:
		return true
	}
	return false
}

// Adapter is the handle for one platform's live API surface. The matcher only
// uses it to confirm a platform is initialized before scoping catalog reads;
// price refresh, stock checks and ordering belong to the sync process.
type Adapter interface {
	Slug() ID
	Name() string
}
