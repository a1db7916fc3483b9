// Package exocore holds the few types shared by every other package in the
// module: the operation vocabulary used by the access-control solver and the
// request resolver, and the generic result cache interface. Everything else
// — the SQL model, the SQL IR, the model compiler, the GraphQL planner, the
// request resolver and the migration engine — lives in its own package.
package exocore

// Op identifies the kind of operation being evaluated by an access rule or
// executed by the resolver. It mirrors the query/mutation vocabulary of
// spec §4.4 (queries: t, ts, tsAgg; mutations: createT, updateT, deleteT, ...).
type Op uint16

// Operation bits. A rule may test membership with Is so that a single rule
// can be scoped to a subset of operations (e.g. only deletes).
const (
	OpQueryOne Op = 1 << iota
	OpQueryMany
	OpQueryAggregate
	OpCreateOne
	OpCreateMany
	OpUpdateOne
	OpUpdateMany
	OpDeleteOne
	OpDeleteMany

	OpQuery    = OpQueryOne | OpQueryMany | OpQueryAggregate
	OpCreate   = OpCreateOne | OpCreateMany
	OpUpdate   = OpUpdateOne | OpUpdateMany
	OpDelete   = OpDeleteOne | OpDeleteMany
	OpMutation = OpCreate | OpUpdate | OpDelete
)

// Is reports whether op has any of the bits of mask set.
func (op Op) Is(mask Op) bool { return op&mask != 0 }

// String renders the operation for diagnostics and logging.
func (op Op) String() string {
	switch op {
	case OpQueryOne:
		return "queryOne"
	case OpQueryMany:
		return "queryMany"
	case OpQueryAggregate:
		return "queryAggregate"
	case OpCreateOne:
		return "createOne"
	case OpCreateMany:
		return "createMany"
	case OpUpdateOne:
		return "updateOne"
	case OpUpdateMany:
		return "updateMany"
	case OpDeleteOne:
		return "deleteOne"
	case OpDeleteMany:
		return "deleteMany"
	default:
		return "op(unknown)"
	}
}
