package lifecycle

import (
	"strings"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/models"
)

// operation is the caller intent a transition is requested under.
type operation int

const (
	opReview operation = iota
	opStart
	opCancel
	opComplete
)

func (o operation) String() string {
	switch o {
	case opReview:
		return "review"
	case opStart:
		return "start"
	case opCancel:
		return "cancel"
	case opComplete:
		return "complete"
	}
	return "unknown"
}

// effect is the side effect applied when a rule fires.
type effect int

const (
	effectOrgApproval effect = iota + 1
	effectApprove
	effectReject
	effectStart
	effectCancel
	effectComplete
)

type rule struct {
	to          models.FlightPlanStatus
	effect      effect
	needsReason bool
}

type edgeKey struct {
	from models.FlightPlanStatus
	role models.UserRole
	op   operation
}

// roleSystem is the actor the simulation engine completes flights as.
const roleSystem models.UserRole = "SYSTEM"

var systemActor = &models.User{Username: "system", Role: roleSystem, IsActive: true}

// transitions is the whole state machine: every permitted (state, role,
// operation) combination and the states it may lead to.
var transitions = buildTransitions()

// roleOps records which operations a role may request at all.
var roleOps = buildRoleOps()

func buildTransitions() map[edgeKey][]rule {
	t := map[edgeKey][]rule{}
	add := func(from models.FlightPlanStatus, role models.UserRole, op operation, rules ...rule) {
		k := edgeKey{from: from, role: role, op: op}
		t[k] = append(t[k], rules...)
	}

	add(models.FlightPendingOrgApproval, models.RoleOrganizationAdmin, opReview,
		rule{to: models.FlightPendingAuthorityApproval, effect: effectOrgApproval},
		rule{to: models.FlightRejectedByOrg, effect: effectReject, needsReason: true},
	)
	for _, from := range []models.FlightPlanStatus{models.FlightPendingOrgApproval, models.FlightPendingAuthorityApproval} {
		add(from, models.RoleAuthorityAdmin, opReview,
			rule{to: models.FlightApproved, effect: effectApprove},
			rule{to: models.FlightRejectedByAuthority, effect: effectReject, needsReason: true},
		)
	}

	pilots := []models.UserRole{models.RoleSoloPilot, models.RoleOrganizationPilot}
	admins := []models.UserRole{models.RoleOrganizationAdmin, models.RoleAuthorityAdmin}
	for _, role := range pilots {
		add(models.FlightApproved, role, opStart, rule{to: models.FlightActive, effect: effectStart})
		for _, from := range []models.FlightPlanStatus{models.FlightPendingOrgApproval, models.FlightPendingAuthorityApproval, models.FlightApproved} {
			add(from, role, opCancel, rule{to: models.FlightCancelledByPilot, effect: effectCancel})
		}
	}
	for _, role := range admins {
		for _, from := range []models.FlightPlanStatus{models.FlightPendingOrgApproval, models.FlightPendingAuthorityApproval, models.FlightApproved, models.FlightActive} {
			add(from, role, opCancel, rule{to: models.FlightCancelledByAdmin, effect: effectCancel})
		}
	}

	add(models.FlightActive, roleSystem, opComplete, rule{to: models.FlightCompleted, effect: effectComplete})
	return t
}

func buildRoleOps() map[models.UserRole]map[operation]bool {
	out := map[models.UserRole]map[operation]bool{}
	for k := range transitions {
		if out[k.role] == nil {
			out[k.role] = map[operation]bool{}
		}
		out[k.role][k.op] = true
	}
	return out
}

// owns reports whether actor is in scope for fp: pilots act on their own
// flights, organization admins on their organization's flights.
func owns(actor *models.User, fp *models.FlightPlan) error {
	switch actor.Role {
	case models.RoleAuthorityAdmin, roleSystem:
		return nil
	case models.RoleOrganizationAdmin:
		if !actor.InOrganization(fp.OrganizationID) {
			return apperr.Forbidden("organization_mismatch", "flight plan %d does not belong to your organization", fp.ID)
		}
		return nil
	case models.RoleSoloPilot, models.RoleOrganizationPilot:
		if fp.SubmitterID != actor.ID {
			return apperr.Forbidden("not_submitter", "only the submitter may act on flight plan %d", fp.ID)
		}
		return nil
	}
	return apperr.Forbidden("role", "unknown role %q", actor.Role)
}

// authorize is the single dispatch point for every lifecycle change. Checks
// run in a fixed order: actor, role, ownership, state, reason.
func authorize(actor *models.User, fp *models.FlightPlan, op operation, to models.FlightPlanStatus, reason string) (rule, error) {
	if actor == nil {
		return rule{}, apperr.Forbidden("actor_required", "an authenticated actor is required")
	}
	if !actor.IsActive {
		return rule{}, apperr.Forbidden("inactive_actor", "user %d is inactive", actor.ID)
	}
	if !roleOps[actor.Role][op] {
		return rule{}, apperr.Forbidden("role", "role %s cannot %s flight plans", actor.Role, op)
	}
	if err := owns(actor, fp); err != nil {
		return rule{}, err
	}
	for _, r := range transitions[edgeKey{from: fp.Status, role: actor.Role, op: op}] {
		if r.to != to {
			continue
		}
		if r.needsReason && strings.TrimSpace(reason) == "" {
			return rule{}, apperr.Validation("reason_required", "a reason is required to move flight plan %d to %s", fp.ID, to)
		}
		return r, nil
	}
	return rule{}, apperr.InvalidState("flight plan %d cannot move from %s to %s", fp.ID, fp.Status, to)
}
