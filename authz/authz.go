// Package authz holds the access decisions of the service. Every function is
// pure: it looks only at the caller snapshot, the static policy and the owner
// id of the resource.
package authz

import (
	"MediCore/models"
	"MediCore/utils"

	"github.com/samber/lo"
)

// Identity is the caller snapshot taken once per request.
type Identity struct {
	ID   string
	Role models.Role
	Plan models.SubscriptionPlan
}

// IdentityOf snapshots a loaded user.
func IdentityOf(user *models.User) Identity {
	return Identity{ID: user.ID, Role: user.Role, Plan: user.SubscriptionPlan}
}

// RequireRole fails unless the caller holds one of allowed.
func RequireRole(id Identity, allowed ...models.Role) error {
	if lo.Contains(allowed, id.Role) {
		return nil
	}
	return utils.Forbidden("You do not have permission to perform this action")
}

// RequireOwnerOrRole fails unless the caller owns the resource or holds a bypass role.
func RequireOwnerOrRole(id Identity, ownerID string, bypass ...models.Role) error {
	if ownerID != "" && id.ID == ownerID {
		return nil
	}
	if lo.Contains(bypass, id.Role) {
		return nil
	}
	return utils.Forbidden("You can only access your own data")
}

// RequirePlan fails unless the caller is on plan.
func RequirePlan(id Identity, plan models.SubscriptionPlan) error {
	if id.Plan == plan {
		return nil
	}
	return utils.Forbidden("This feature requires a Pro subscription. Please upgrade your plan.")
}

// CanReadPatient lets staff read every record and a patient only the record linked to them.
func CanReadPatient(id Identity, ownerID string) error {
	if id.Role != models.RolePatient {
		return nil
	}
	if ownerID != "" && ownerID == id.ID {
		return nil
	}
	return utils.Forbidden("You can only access your own patient record")
}

// CanWritePatient restricts patient record mutation to administrators and front desk.
func CanWritePatient(id Identity) error {
	return Require(id, ManagePatients)
}

// ForbidSelfTarget blocks an identity from acting on itself.
func ForbidSelfTarget(id Identity, targetID, action string) error {
	if id.ID == targetID {
		return utils.Forbidden("You cannot " + action + " your own account")
	}
	return nil
}
