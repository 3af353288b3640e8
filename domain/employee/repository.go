package employee

import (
	"context"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
)

// Repository persists Employee and Transfer records.
type Repository interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	GetByCode(ctx context.Context, code string) (Employee, error)
	ListByDepartment(ctx context.Context, dept department.Department, includeResigned bool) ([]Employee, error)
	MarkResigned(ctx context.Context, code string, resigned bool) error

	// RecordTransfer appends an immutable Transfer and advances the
	// employee's current_department in the same transaction.
	RecordTransfer(ctx context.Context, t Transfer) (Transfer, error)
	ListTransfers(ctx context.Context, code string) ([]Transfer, error)
}
