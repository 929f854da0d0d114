package actor

// Role is the coarse permission class of an authenticated caller. Session
// issuance lives outside this service; handlers receive the resolved
// identity through trusted headers set by the auth proxy.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleShipper   Role = "shipper"
	RoleAdmin     Role = "admin"
)

type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsZero() bool {
	return a.ID == ""
}
