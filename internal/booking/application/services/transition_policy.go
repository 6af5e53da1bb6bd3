package services

import "github.com/felixgeelhaar/stationbook/internal/booking/domain"

// Role is the capacity a requester acts in.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleOperator Role = "operator"
	RoleCustomer Role = "customer"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleOwner, RoleOperator, RoleCustomer:
		return r, nil
	}
	return "", domain.BusinessRule("unknown role %q", s)
}

// TransitionPolicy decides whether a role may move a reservation between
// two statuses. Legality under the status table is checked separately.
type TransitionPolicy interface {
	Allow(role Role, from, to domain.Status) bool
}

// DefaultPolicy lets admins and owners make any legal transition, operators
// confirm and complete, and customers cancel.
type DefaultPolicy struct{}

func (DefaultPolicy) Allow(role Role, from, to domain.Status) bool {
	switch role {
	case RoleAdmin, RoleOwner:
		return true
	case RoleOperator:
		return (from == domain.StatusPending && to == domain.StatusConfirmed) ||
			(from == domain.StatusConfirmed && to == domain.StatusCompleted)
	case RoleCustomer:
		return to == domain.StatusCancelled
	default:
		return false
	}
}
