// Package sqlvalidation parses generated statements with the PostgreSQL parser
// so that template or configuration mistakes surface before any row is sent.
package sqlvalidation

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Kind is the statement shape a generated statement must have.
type Kind string

const (
	KindInsert Kind = "insert"
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
)

// Statement is one generated statement to check, already rewritten to
// positional placeholders.
type Statement struct {
	Kind  Kind
	Table string
	SQL   string
}

// ValidationIssue represents a validation error or warning
type ValidationIssue struct {
	Kind     Kind   `json:"kind"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s %s (line %d, column %d): %s", i.Severity, i.Kind, i.Line, i.Column, i.Message)
}

// SQLValidationResult contains all validation issues for a set of statements
type SQLValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

var nearToken = regexp.MustCompile(`at or near "([^"]+)"`)

// ValidateStatements parses each statement and checks it is a single statement
// of the expected kind against the expected table. Empty statements are
// reported as warnings since the sink treats them as no-ops.
func ValidateStatements(stmts []Statement) SQLValidationResult {
	result := SQLValidationResult{Valid: true}
	for _, stmt := range stmts {
		for _, issue := range validateStatement(stmt) {
			if issue.Severity == "error" {
				result.Valid = false
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	return result
}

func validateStatement(stmt Statement) []ValidationIssue {
	if strings.TrimSpace(stmt.SQL) == "" {
		return []ValidationIssue{{
			Kind:     stmt.Kind,
			Line:     1,
			Column:   1,
			Severity: "warning",
			Message:  fmt.Sprintf("%s statement is empty and will be skipped", stmt.Kind),
			Code:     "empty_statement",
		}}
	}

	tree, err := pg_query.Parse(stmt.SQL)
	if err != nil {
		msg := strings.TrimPrefix(err.Error(), "failed to parse SQL: ")
		line, col := 1, 1
		if m := nearToken.FindStringSubmatch(msg); len(m) > 1 {
			line, col = findTokenInContent(stmt.SQL, m[1])
		}
		return []ValidationIssue{{
			Kind:     stmt.Kind,
			Line:     line,
			Column:   col,
			Severity: "error",
			Message:  msg,
			Code:     "syntax_error",
		}}
	}

	if len(tree.Stmts) != 1 {
		return []ValidationIssue{{
			Kind:     stmt.Kind,
			Line:     1,
			Column:   1,
			Severity: "error",
			Message:  fmt.Sprintf("expected exactly one statement, found %d", len(tree.Stmts)),
			Code:     "statement_count",
		}}
	}

	node := tree.Stmts[0].GetStmt()
	var relation *pg_query.RangeVar
	switch stmt.Kind {
	case KindInsert:
		if n := node.GetInsertStmt(); n != nil {
			relation = n.GetRelation()
		}
	case KindCreate:
		if n := node.GetCreateStmt(); n != nil {
			relation = n.GetRelation()
		}
	case KindUpdate:
		if n := node.GetUpdateStmt(); n != nil {
			relation = n.GetRelation()
		}
	}

	if relation == nil {
		return []ValidationIssue{{
			Kind:     stmt.Kind,
			Line:     1,
			Column:   1,
			Severity: "error",
			Message:  fmt.Sprintf("expected %s statement", strings.ToUpper(string(stmt.Kind))),
			Code:     "statement_kind",
		}}
	}

	if stmt.Table != "" && relation.GetRelname() != stmt.Table {
		return []ValidationIssue{{
			Kind:     stmt.Kind,
			Line:     1,
			Column:   1,
			Severity: "error",
			Message:  fmt.Sprintf("statement targets %q, expected %q", relation.GetRelname(), stmt.Table),
			Code:     "table_mismatch",
		}}
	}

	return nil
}

func findTokenInContent(content, token string) (int, int) {
	idx := strings.Index(content, token)
	if idx == -1 {
		return 1, 1
	}

	line := 1
	col := 1
	for i := 0; i < idx; i++ {
		if content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}
