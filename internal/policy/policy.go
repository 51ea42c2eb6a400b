// Package policy decides who may perform which action on a project,
// proposal, role or user. Every rule lives in one table so the handlers and
// services never repeat role or ownership conditionals.
package policy

import (
	"slices"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
)

type Action string

const (
	ProjectCreate        Action = "project:create"
	ProjectUpdate        Action = "project:update"
	ProjectDelete        Action = "project:delete"
	ProjectAssign        Action = "project:assign"
	ProjectComplete      Action = "project:complete"
	ProjectCancel        Action = "project:cancel"
	ProjectRate          Action = "project:rate"
	ProjectListProposals Action = "project:list-proposals"

	ProposalCreate   Action = "proposal:create"
	ProposalUpdate   Action = "proposal:update"
	ProposalAccept   Action = "proposal:accept"
	ProposalReject   Action = "proposal:reject"
	ProposalWithdraw Action = "proposal:withdraw"
	ProposalListMine Action = "proposal:list-mine"

	RoleCreate Action = "role:create"
	RoleUpdate Action = "role:update"
	RoleDelete Action = "role:delete"

	UserDelete Action = "user:delete"
)

// Actor is the authenticated caller
type Actor struct {
	UserID uuid.UUID
	Role   models.RoleName
}

// Subject is the entity an action targets. Rules read only what they need.
type Subject struct {
	Project  *models.Project
	Proposal *models.Proposal
}

// Rule grants an action to callers holding one of Roles (any role when empty)
// for which Check holds (always when nil). Otherwise the action is denied
// with an error of kind Deny.
type Rule struct {
	Roles   []models.RoleName
	Check   func(Actor, Subject) bool
	Deny    apperror.Kind
	Message string
}

func ownsProject(a Actor, s Subject) bool {
	return s.Project != nil && s.Project.IsOwnedBy(a.UserID)
}

func participatesInProject(a Actor, s Subject) bool {
	return s.Project != nil && (s.Project.IsOwnedBy(a.UserID) || s.Project.IsAssignedTo(a.UserID))
}

func ownsProposal(a Actor, s Subject) bool {
	return s.Proposal != nil && s.Proposal.FreelancerID == a.UserID
}

var adminOnly = []models.RoleName{models.RoleAdmin}

var rules = map[Action]Rule{
	ProjectCreate: {
		Roles:   []models.RoleName{models.RoleClient, models.RoleAdmin},
		Deny:    apperror.KindForbidden,
		Message: "Only clients can create projects",
	},
	ProjectUpdate: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "You can only update your own projects",
	},
	ProjectDelete: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "You can only delete your own projects",
	},
	ProjectAssign: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "Only the project owner can assign freelancers",
	},
	ProjectComplete: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "Only the project owner can complete the project",
	},
	ProjectCancel: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "Only the project owner can cancel the project",
	},
	ProjectRate: {
		Check:   participatesInProject,
		Deny:    apperror.KindForbidden,
		Message: "Only project participants can rate the project",
	},
	ProjectListProposals: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "You can only view proposals for your own projects",
	},
	ProposalCreate: {
		Roles:   []models.RoleName{models.RoleFreelancer},
		Deny:    apperror.KindBadRequest,
		Message: "Only freelancers can submit proposals",
	},
	ProposalUpdate: {
		Check:   ownsProposal,
		Deny:    apperror.KindForbidden,
		Message: "You can only update your own proposals",
	},
	ProposalAccept: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "Only the project owner can accept proposals",
	},
	ProposalReject: {
		Check:   ownsProject,
		Deny:    apperror.KindForbidden,
		Message: "Only the project owner can reject proposals",
	},
	ProposalWithdraw: {
		Check:   ownsProposal,
		Deny:    apperror.KindForbidden,
		Message: "You can only withdraw your own proposals",
	},
	ProposalListMine: {
		Roles:   []models.RoleName{models.RoleFreelancer},
		Deny:    apperror.KindForbidden,
		Message: "Only freelancers have proposals",
	},
	RoleCreate: {Roles: adminOnly, Deny: apperror.KindForbidden, Message: "Admin access required"},
	RoleUpdate: {Roles: adminOnly, Deny: apperror.KindForbidden, Message: "Admin access required"},
	RoleDelete: {Roles: adminOnly, Deny: apperror.KindForbidden, Message: "Admin access required"},
	UserDelete: {Roles: adminOnly, Deny: apperror.KindForbidden, Message: "Admin access required"},
}

// Authorize returns nil when actor may perform action on subject, otherwise
// an *apperror.Error of the rule's denial kind.
func Authorize(actor Actor, action Action, subject Subject) error {
	rule, ok := rules[action]
	if !ok {
		return apperror.Forbidden("Action not permitted")
	}

	if len(rule.Roles) > 0 && !slices.Contains(rule.Roles, actor.Role) {
		return apperror.New(rule.Deny, rule.Message)
	}
	if rule.Check != nil && !rule.Check(actor, subject) {
		return apperror.New(rule.Deny, rule.Message)
	}
	return nil
}

// Can is Authorize as a boolean
func Can(actor Actor, action Action, subject Subject) bool {
	return Authorize(actor, action, subject) == nil
}
