package cases

import "github.com/linesmerrill/court-case-api/models"

// Operation names an action a principal attempts on a case
type Operation string

// Operations
const (
	OpView            Operation = "view"
	OpRegister        Operation = "register"
	OpAssignJudge     Operation = "assign_judge"
	OpScheduleHearing Operation = "schedule_hearing"
	OpAddOrder        Operation = "add_order"
	OpUpdateStatus    Operation = "update_status"
)

// CanView reports whether p may read c. Unknown roles are denied.
func CanView(p models.Principal, c *models.CourtCaseDetails) bool {
	if c == nil {
		return false
	}
	switch p.Role {
	case models.RoleRegistrar:
		return true
	case models.RoleJudge:
		return c.AssignedJudge == "" || c.AssignedJudge == p.ID
	case models.RoleLawyer:
		return c.RepresentedBy(p.ID)
	case models.RoleUser:
		return p.ID != "" && c.HasParty(p.ID)
	}
	return false
}

// CanMutate reports whether p may perform op on c. c may be nil for OpRegister.
func CanMutate(p models.Principal, c *models.CourtCaseDetails, op Operation) bool {
	switch op {
	case OpView:
		return CanView(p, c)
	case OpRegister, OpAssignJudge:
		return p.Role == models.RoleRegistrar
	case OpScheduleHearing, OpUpdateStatus:
		return p.Role == models.RoleRegistrar || p.Role == models.RoleJudge
	case OpAddOrder:
		return p.Role == models.RoleJudge && c != nil &&
			c.AssignedJudge != "" && c.AssignedJudge == p.ID
	}
	return false
}

// Authorize is CanMutate returning a forbidden Error on denial
func Authorize(p models.Principal, c *models.CourtCaseDetails, op Operation) error {
	if CanMutate(p, c, op) {
		return nil
	}
	if op == OpAddOrder && p.Role == models.RoleJudge {
		return New(KindForbidden, "only the assigned judge can pass orders on this case")
	}
	if op == OpView {
		return New(KindForbidden, "you do not have access to this case")
	}
	return New(KindForbidden, "role %q cannot %s", p.Role, humanOp(op))
}

func humanOp(op Operation) string {
	switch op {
	case OpRegister:
		return "register cases"
	case OpAssignJudge:
		return "assign judges"
	case OpScheduleHearing:
		return "schedule hearings"
	case OpAddOrder:
		return "pass orders"
	case OpUpdateStatus:
		return "update case status"
	}
	return string(op)
}
