// Package access decides whether a requester's role may perform an
// operation. Verdicts are computed from a fixed table, are free of side
// effects, and the same (role, operation) pair always yields the same
// answer.
package access

import (
	"errors"

	"github.com/meal-tracker/internal/model"
)

type Operation string

const (
	OpMealCreate     Operation = "meal:create"
	OpMealRead       Operation = "meal:read"
	OpMealUpdate     Operation = "meal:update"
	OpMealDelete     Operation = "meal:delete"
	OpUserList       Operation = "user:list"
	OpUserUpdate     Operation = "user:update"
	OpUserDelete     Operation = "user:delete"
	OpUserDeleteSelf Operation = "user:delete-self"
	OpUserReadSelf   Operation = "user:read-self"
)

// ErrForbidden is the single denial error; every role denial carries
// the same message regardless of endpoint.
var ErrForbidden = errors.New("forbidden")

// deniedFor lists, per role, the operations that role may not perform.
// Managers are oversight-only: they administer users but hold no meal
// data of their own. Regulars own their meals but see no other users.
// Unknown operations and unknown roles deny.
var deniedFor = map[model.UserRole]map[Operation]bool{
	model.UserRoleAdmin: {},
	model.UserRoleManager: {
		OpMealCreate: true,
		OpMealRead:   true,
		OpMealUpdate: true,
		OpMealDelete: true,
	},
	model.UserRoleRegular: {
		OpUserList:   true,
		OpUserUpdate: true,
		OpUserDelete: true,
	},
}

var allOps = map[Operation]bool{
	OpMealCreate:     true,
	OpMealRead:       true,
	OpMealUpdate:     true,
	OpMealDelete:     true,
	OpUserList:       true,
	OpUserUpdate:     true,
	OpUserDelete:     true,
	OpUserDeleteSelf: true,
	OpUserReadSelf:   true,
}

// Authorize returns nil when role may perform op, ErrForbidden
// otherwise. It is total over roles and operations: anything outside
// the known sets denies.
func Authorize(role model.UserRole, op Operation) error {
	denied, known := deniedFor[role]
	if !known || !allOps[op] {
		return ErrForbidden
	}
	if denied[op] {
		return ErrForbidden
	}
	return nil
}
