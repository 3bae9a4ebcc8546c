package sqlguard

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/dpaliy/staffql/internal/schema"
)

// Violation rejects a candidate query. Kind identifies which safety rule
// failed; Detail is safe to log but not meant for end users.
type Violation struct {
	Kind   string
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("sql validation failed (%s): %s", v.Kind, v.Detail)
}

// Violation kinds.
const (
	KindEmptyInput     = "empty_input"
	KindSyntax         = "syntax_error"
	KindMultiStatement = "multi_statement"
	KindNotSelect      = "not_select"
	KindFromRequired   = "from_required"
	KindTable          = "forbidden_table"
	KindCrossTable     = "cross_table"
	KindWildcard       = "wildcard_projection"
	KindColumn         = "forbidden_column"
	KindFunction       = "forbidden_function"
	KindDangerous      = "dangerous_pattern"
	KindLimit          = "limit_exceeded"
)

// Substrings that must never appear in a generated query, regardless of how
// the statement parses. Checked on the lower-cased statement text as a
// backstop independent of the AST walk.
var dangerousPatterns = []string{
	"information_schema",
	"pg_catalog",
	"pg_user",
	"current_user",
	"session_user",
}

// Validator enforces the read-only, allow-listed contract on untrusted SQL.
// It parses the statement with the Postgres grammar, walks the tree against
// the schema registry, and appends a default LIMIT when none is present.
type Validator struct {
	reg          *schema.Registry
	defaultLimit int
	maxLimit     int
	cache        *resultCache
}

func New(reg *schema.Registry, defaultLimit, maxLimit int) *Validator {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	return &Validator{
		reg:          reg,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		cache:        newResultCache(cacheEntryLimit),
	}
}

// Validate returns SQL that is safe to execute, possibly rewritten to carry an
// explicit LIMIT, or a *Violation describing why the input was rejected.
func (v *Validator) Validate(sql string) (string, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "", &Violation{Kind: KindEmptyInput, Detail: "empty query"}
	}

	// Identical queries validate identically; skip the re-parse.
	key := strings.ToLower(trimmed)
	if out, vio, ok := v.cache.get(key); ok {
		if vio != nil {
			return "", vio
		}
		return out, nil
	}

	out, vio := v.validate(trimmed)
	v.cache.put(key, out, vio)
	if vio != nil {
		return "", vio
	}
	return out, nil
}

func (v *Validator) validate(sql string) (string, *Violation) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return "", &Violation{Kind: KindSyntax, Detail: err.Error()}
	}
	if len(result.Stmts) == 0 {
		return "", &Violation{Kind: KindEmptyInput, Detail: "no statements found"}
	}
	if len(result.Stmts) > 1 {
		return "", &Violation{Kind: KindMultiStatement, Detail: "only single SELECT queries are allowed"}
	}

	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return "", &Violation{Kind: KindNotSelect, Detail: "only SELECT queries are allowed"}
	}
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		return "", &Violation{Kind: KindNotSelect, Detail: "set operations are not allowed"}
	}
	if sel.WithClause != nil {
		return "", &Violation{Kind: KindNotSelect, Detail: "WITH queries are not allowed"}
	}

	if vio := v.checkFrom(sel.FromClause); vio != nil {
		return "", vio
	}
	if vio := v.checkProjection(sel.TargetList); vio != nil {
		return "", vio
	}

	lowered := strings.ToLower(sql)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return "", &Violation{
				Kind:   KindDangerous,
				Detail: fmt.Sprintf("access to %q is not allowed", pattern),
			}
		}
	}

	if sel.LimitCount == nil {
		return v.appendLimit(sql), nil
	}
	// Anything that does not resolve to a plain integer constant fails
	// closed: oversized literals parse as float constants and parameters or
	// expressions cannot be bounded here.
	c := sel.LimitCount.GetAConst()
	if c == nil || c.GetIval() == nil {
		return "", &Violation{Kind: KindLimit, Detail: "LIMIT must be a plain integer constant"}
	}
	if int(c.GetIval().Ival) > v.maxLimit {
		return "", &Violation{
			Kind:   KindLimit,
			Detail: fmt.Sprintf("LIMIT cannot exceed %d rows", v.maxLimit),
		}
	}
	return sql, nil
}

// checkFrom collects every relation referenced by the FROM clause, including
// joined relations, and enforces the single-allowed-table rule. Self-joins
// collapse to one distinct name and pass.
func (v *Validator) checkFrom(from []*pg_query.Node) *Violation {
	if len(from) == 0 {
		return &Violation{Kind: KindFromRequired, Detail: "FROM clause is required"}
	}

	var names []string
	var bad *Violation
	var walk func(node *pg_query.Node)
	walk = func(node *pg_query.Node) {
		if node == nil || bad != nil {
			return
		}
		switch {
		case node.GetRangeVar() != nil:
			names = append(names, strings.ToLower(node.GetRangeVar().Relname))
		case node.GetJoinExpr() != nil:
			walk(node.GetJoinExpr().Larg)
			walk(node.GetJoinExpr().Rarg)
		default:
			bad = &Violation{Kind: KindFromRequired, Detail: "unsupported FROM clause element"}
		}
	}
	for _, node := range from {
		walk(node)
	}
	if bad != nil {
		return bad
	}
	if len(names) == 0 {
		return &Violation{Kind: KindFromRequired, Detail: "no valid tables found in FROM clause"}
	}

	distinct := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !v.reg.IsAllowedTable(name) {
			return &Violation{
				Kind:   KindTable,
				Detail: fmt.Sprintf("access to table %q is not allowed (allowed: %s)", name, strings.Join(v.reg.Tables(), ", ")),
			}
		}
		distinct[name] = struct{}{}
	}
	if len(distinct) > 1 {
		return &Violation{Kind: KindCrossTable, Detail: "cross-table queries are not allowed"}
	}
	return nil
}

// checkProjection rejects wildcard projections and any column or function in
// the SELECT list that is outside the registry.
func (v *Validator) checkProjection(targets []*pg_query.Node) *Violation {
	if len(targets) == 0 {
		return &Violation{Kind: KindWildcard, Detail: "no columns specified"}
	}
	for i, node := range targets {
		target := node.GetResTarget()
		if target == nil || target.Val == nil {
			continue
		}
		if vio := v.checkExpr(target.Val); vio != nil {
			vio.Detail = fmt.Sprintf("column %d: %s", i+1, vio.Detail)
			return vio
		}
	}
	return nil
}

func (v *Validator) checkExpr(node *pg_query.Node) *Violation {
	switch {
	case node.GetColumnRef() != nil:
		return v.checkColumnRef(node.GetColumnRef())
	case node.GetFuncCall() != nil:
		return v.checkFuncCall(node.GetFuncCall())
	case node.GetTypeCast() != nil:
		return v.checkExpr(node.GetTypeCast().Arg)
	}
	return nil
}

func (v *Validator) checkColumnRef(ref *pg_query.ColumnRef) *Violation {
	if len(ref.Fields) == 0 {
		return nil
	}
	// Qualified references resolve to the last path element.
	last := ref.Fields[len(ref.Fields)-1]
	if last.GetAStar() != nil {
		return &Violation{Kind: KindWildcard, Detail: "wildcard (*) is not allowed, specify columns explicitly"}
	}
	str := last.GetString_()
	if str == nil {
		return nil
	}
	name := strings.ToLower(str.Sval)
	if !v.reg.IsAllowedColumn(name) {
		return &Violation{
			Kind:   KindColumn,
			Detail: fmt.Sprintf("column %q is not allowed (allowed: %s)", name, strings.Join(v.reg.Columns(), ", ")),
		}
	}
	return nil
}

func (v *Validator) checkFuncCall(call *pg_query.FuncCall) *Violation {
	if len(call.Funcname) == 0 {
		return nil
	}
	last := call.Funcname[len(call.Funcname)-1].GetString_()
	if last == nil {
		return nil
	}
	name := strings.ToLower(last.Sval)
	if !v.reg.IsAllowedFunction(name) {
		return &Violation{Kind: KindFunction, Detail: fmt.Sprintf("function %q is not allowed", name)}
	}
	for _, arg := range call.Args {
		if vio := v.checkExpr(arg); vio != nil {
			return vio
		}
	}
	return nil
}

// appendLimit runs only after the parse proved the statement carries no
// LIMIT clause, so it appends unconditionally.
func (v *Validator) appendLimit(sql string) string {
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	return fmt.Sprintf("%s LIMIT %d", clean, v.defaultLimit)
}
