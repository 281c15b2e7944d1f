package allocation

import "errors"

var (
	ErrNotAuthorized            = errors.New("allocation: not authorized")
	ErrUserNotRegistered        = errors.New("allocation: user not registered")
	ErrInvalidUserList          = errors.New("allocation: invalid user list")
	ErrNoUsageData              = errors.New("allocation: no usage data")
	ErrTokenMintFailed          = errors.New("allocation: token mint failed")
	ErrTokenBurnFailed          = errors.New("allocation: token burn failed")
	ErrCycleNotReady            = errors.New("allocation: cycle not ready")
	ErrInvalidAllocationFormula = errors.New("allocation: invalid allocation formula")
	ErrOverflow                 = errors.New("allocation: arithmetic overflow")
	ErrModulePaused             = errors.New("allocation: module paused")
)
