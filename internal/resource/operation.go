package resource

import "strings"

// Operation is a set of composed CRUD operations
type Operation uint8

const (
	OpList Operation = 1 << iota
	OpCreate
	OpRead
	OpUpdate
	OpDelete
)

// OpAll is every operation
const OpAll = OpList | OpCreate | OpRead | OpUpdate | OpDelete

// Has reports whether every operation of op is in o
func (o Operation) Has(op Operation) bool {
	return o&op == op
}

// String lists the operations of o
func (o Operation) String() string {
	names := make([]string, 0, 5)
	for _, op := range []struct {
		op   Operation
		name string
	}{
		{OpList, "list"},
		{OpCreate, "create"},
		{OpRead, "read"},
		{OpUpdate, "update"},
		{OpDelete, "delete"},
	} {
		if o.Has(op.op) {
			names = append(names, op.name)
		}
	}
	return strings.Join(names, "|")
}
