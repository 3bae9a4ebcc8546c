package template

import (
	"regexp"
	"strconv"
	"strings"
)

// Query is a pre-built, known-safe parameterized statement. The SQL text is a
// fixed trusted string; only parameter values come from the user's message.
type Query struct {
	Name   string
	SQL    string
	Params []any
}

const skillSearchSQL = `SELECT id,name,email,department,experience_years,skills FROM employees WHERE $1 = ANY(skills) AND experience_years >= $2 ORDER BY experience_years DESC LIMIT $3`

// Matches "list React developers", "show frontend developers with 3+ years"
// and similar high-frequency phrasings.
var skillSearchRe = regexp.MustCompile(`\b(?:list|show) ([a-z0-9+#.]+|frontend) developers(?: with (\d+)\+? years?)?`)

// Matcher recognizes a small set of common question shapes and answers them
// without a translation round trip.
type Matcher struct{}

func New() *Matcher { return &Matcher{} }

// Match returns a ready-to-execute query when the message fits a template.
// pageSize caps the result set for the template path.
func (m *Matcher) Match(message string, pageSize int) (Query, bool) {
	if pageSize <= 0 {
		pageSize = 10
	}
	lc := strings.ToLower(strings.TrimSpace(message))

	groups := skillSearchRe.FindStringSubmatch(lc)
	if groups == nil {
		return Query{}, false
	}

	skill := groups[1]
	if skill == "frontend" {
		skill = "React"
	} else {
		skill = titleSkill(skill)
	}
	years := 0
	if groups[2] != "" {
		years, _ = strconv.Atoi(groups[2])
	}

	return Query{
		Name:   "skill_search",
		SQL:    skillSearchSQL,
		Params: []any{skill, years, pageSize},
	}, true
}

// titleSkill restores conventional casing for skill tags stored in the
// dataset ("react" -> "React", "c++" -> "C++").
func titleSkill(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
