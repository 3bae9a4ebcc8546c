package schema

import "strings"

// Registry holds the fixed allow-lists of relations, columns, and SQL
// functions a generated query may reference. Lookups are case-insensitive.
type Registry struct {
	tables    map[string]struct{}
	columns   map[string]struct{}
	functions map[string]struct{}
}

// Employees returns the registry for the employees dataset.
func Employees() *Registry {
	return newRegistry(
		[]string{"employees"},
		[]string{
			"id", "name", "email", "phone", "position", "joining_date",
			"employment_type", "department", "location", "manager",
			"experience_years", "is_remote", "skills", "projects",
		},
		[]string{
			"count", "sum", "avg", "min", "max",
			"upper", "lower", "length", "array_length",
			"unnest", "exists",
		},
	)
}

func newRegistry(tables, columns, functions []string) *Registry {
	r := &Registry{
		tables:    make(map[string]struct{}, len(tables)),
		columns:   make(map[string]struct{}, len(columns)),
		functions: make(map[string]struct{}, len(functions)),
	}
	for _, t := range tables {
		r.tables[strings.ToLower(t)] = struct{}{}
	}
	for _, c := range columns {
		r.columns[strings.ToLower(c)] = struct{}{}
	}
	for _, f := range functions {
		r.functions[strings.ToLower(f)] = struct{}{}
	}
	return r
}

func (r *Registry) IsAllowedTable(name string) bool {
	_, ok := r.tables[strings.ToLower(name)]
	return ok
}

func (r *Registry) IsAllowedColumn(name string) bool {
	_, ok := r.columns[strings.ToLower(name)]
	return ok
}

func (r *Registry) IsAllowedFunction(name string) bool {
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Tables lists the allowed relation names, for error messages.
func (r *Registry) Tables() []string {
	out := make([]string, 0, len(r.tables))
	for t := range r.tables {
		out = append(out, t)
	}
	return out
}

// Columns lists the allowed column names, for error messages and prompts.
func (r *Registry) Columns() []string {
	out := make([]string, 0, len(r.columns))
	for c := range r.columns {
		out = append(out, c)
	}
	return out
}
