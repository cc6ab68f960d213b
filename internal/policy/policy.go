// Package policy holds the access rules as pure predicates: no I/O, no
// ambient identity. Callers supply the acting role/id and the entity.
package policy

import "github.com/spec-kit/bounty-service/internal/domain"

// CanPostBounty allows only company accounts to post bounties.
func CanPostBounty(role domain.UserRole) bool {
	return role == domain.RoleCompany
}

// CanSubmitSolution allows only developer accounts to submit.
func CanSubmitSolution(role domain.UserRole) bool {
	return role == domain.RoleDeveloper
}

// OwnsBounty reports whether the actor is the posting company.
func OwnsBounty(actorID string, bounty *domain.Bounty) bool {
	return bounty != nil && bounty.CompanyID == actorID
}

// CanDecideBounty gates winner selection and payment marking: only the
// owning company may transition a bounty.
func CanDecideBounty(actorID string, bounty *domain.Bounty) bool {
	return OwnsBounty(actorID, bounty)
}

// CanViewSubmissions keeps competing solutions private while a contest is
// running: the owner always sees them, everyone else only once the bounty
// reaches CLOSED or PAID.
func CanViewSubmissions(actorID string, bounty *domain.Bounty) bool {
	if bounty == nil {
		return false
	}
	if OwnsBounty(actorID, bounty) {
		return true
	}
	return bounty.Status == domain.BountyStatusClosed || bounty.Status == domain.BountyStatusPaid
}

// CanUpdatePayoutAddress allows developers to change only their own payout
// address.
func CanUpdatePayoutAddress(role domain.UserRole, actorID, profileID string) bool {
	return role == domain.RoleDeveloper && actorID == profileID
}
