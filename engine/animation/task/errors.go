package task

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"go.uber.org/zap"
)

// Operation names reported by contract violations.
const (
	OpRequest        = "request"
	OpRelease        = "release"
	OpAccess         = "access"
	OpGrow           = "grow"
	OpCopy           = "copy"
	OpCreateCached   = "create_cached"
	OpDestroyCached  = "destroy_cached"
	OpGetCached      = "get_cached"
	OpRecord         = "record"
	OpGetRecorded    = "get_recorded"
	OpRegisterTask   = "register_task"
	OpExecuteTask    = "execute_task"
	OpDependency     = "dependency"
	OpUpdateSequence = "update_sequence"
)

// ContractViolation is the panic value raised when a caller breaks the pool or task system contract,
// such as releasing a free slot or addressing a destroyed cached pose. It is never returned as an
// error; callers that need to survive a violation must recover it.
type ContractViolation struct {
	// Op is the operation that detected the violation.
	Op string

	// Detail describes what the caller did wrong.
	Detail string
}

func (e *ContractViolation) Error() string {
	return "task: " + e.Op + ": " + e.Detail
}

// violate logs and counts a contract violation, then panics with it.
func violate(logger *zap.Logger, op, format string, args ...any) {
	cv := &ContractViolation{Op: op, Detail: fmt.Sprintf(format, args...)}
	logger.Error("contract violation", zap.String("op", op), zap.String("detail", cv.Detail))
	metrics.IncContractViolation(op)
	panic(cv)
}
