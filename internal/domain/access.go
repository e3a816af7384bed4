package domain

// Actor is the request-scoped identity every service operation receives.
// Roles and owned businesses are loaded once when the bearer token is
// resolved; they are never persisted.
type Actor struct {
	User            *User
	Roles           []string
	OwnedBusinesses []int64
}

func (a *Actor) ID() int64 {
	if a == nil || a.User == nil {
		return 0
	}
	return a.User.ID
}

func (a *Actor) HasRole(name string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

func (a *Actor) IsAdmin() bool { return a.HasRole(RoleAdmin) }

func (a *Actor) OwnsBusiness(businessID int64) bool {
	if a == nil {
		return false
	}
	for _, id := range a.OwnedBusinesses {
		if id == businessID {
			return true
		}
	}
	return false
}

// CanManageBooking implements the booking authorization matrix: the booking's
// customer, the owner of the booking's business, and admins may read, update
// and cancel it.
func (a *Actor) CanManageBooking(b *Booking) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.UserID || a.OwnsBusiness(b.BusinessID) || a.IsAdmin()
}

// CanManageBusiness gates owner-scoped catalog mutations.
func (a *Actor) CanManageBusiness(businessID int64) bool {
	return a.OwnsBusiness(businessID) || a.IsAdmin()
}

// RequireActive fails unless the actor's account status is active.
func (a *Actor) RequireActive() error {
	if a == nil || a.User == nil {
		return ErrUnauthenticated
	}
	if a.User.Status != UserActive {
		return Forbiddenf("account is %s", a.User.Status)
	}
	return nil
}
