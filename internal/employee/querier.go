package employee

import "context"

// Querier executes validated, parameterized, read-only SQL against the
// employee dataset and returns rows as column-name maps. Implementations only
// ever see statements that already passed the validator or came from a fixed
// template.
type Querier interface {
	Search(ctx context.Context, sql string, params []any) ([]map[string]any, error)
	Close() error
}
