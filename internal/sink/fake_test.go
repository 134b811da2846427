package sink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lockplane/sqlsink/database"
	"github.com/lockplane/sqlsink/internal/session"
)

// fakeBuilder renders statements as "VERB table :_r_c ..." so fakeDB can
// interpret them. Rows are (table, key, value...).
type fakeBuilder struct {
	missing error
}

func (b fakeBuilder) TableName(row Row) string { return row[0] }

func (b fakeBuilder) InsertStatement(tableName string, rows []Row) string {
	var sb strings.Builder
	sb.WriteString("INSERT " + tableName)
	for r, row := range rows {
		for c := range row {
			fmt.Fprintf(&sb, " :_%d_%d", r, c)
		}
	}
	return sb.String()
}

func (b fakeBuilder) CreateTableStatement(sample Row) string { return "CREATE " + sample[0] }

func (b fakeBuilder) UpdateStatement(tableName string, row Row) string {
	var sb strings.Builder
	sb.WriteString("UPDATE " + tableName)
	for c := range row {
		fmt.Fprintf(&sb, " :_0_%d", c)
	}
	return sb.String()
}

func (b fakeBuilder) CheckMandatory() error { return b.missing }

// fakeDB is an in-memory table store keyed by the second cell of each row.
type fakeDB struct {
	tables map[string]map[string]Row

	failCreate  bool
	failUpdates bool
	// poison makes any statement touching a row with this key fail with the error
	poison map[string]error
	// onExec runs before every statement
	onExec func(text string)

	log       []string
	opens     int
	closes    int
	connected bool
	openErr   error
}

func newFakeDB(tables ...string) *fakeDB {
	db := &fakeDB{tables: map[string]map[string]Row{}, poison: map[string]error{}, connected: true}
	for _, t := range tables {
		db.tables[t] = map[string]Row{}
	}
	return db
}

func (db *fakeDB) seed(table string, rows ...Row) {
	if db.tables[table] == nil {
		db.tables[table] = map[string]Row{}
	}
	for _, row := range rows {
		db.tables[table][row[1]] = row
	}
}

func (db *fakeDB) count(verb string) int {
	n := 0
	for _, entry := range db.log {
		if strings.HasPrefix(entry, verb) {
			n++
		}
	}
	return n
}

func categorized(category database.ErrorCategory, code int, msg string) error {
	return &session.ExecError{Category: category, Code: code, Err: errors.New(msg)}
}

func (db *fakeDB) exec(text string, values map[string]string) error {
	if db.onExec != nil {
		db.onExec(text)
	}

	fields := strings.Fields(text)
	verb, table := fields[0], fields[1]
	rows := rebuildRows(values)
	db.log = append(db.log, fmt.Sprintf("%s %s %d", verb, table, len(rows)))

	for _, row := range rows {
		if err, ok := db.poison[row[1]]; ok {
			return err
		}
	}

	switch verb {
	case "CREATE":
		if db.failCreate {
			return categorized(database.CategoryGrammar, 0, "syntax error at or near CREATE")
		}
		if db.tables[table] == nil {
			db.tables[table] = map[string]Row{}
		}
		return nil

	case "INSERT":
		existing, ok := db.tables[table]
		if !ok {
			return categorized(database.CategoryGrammar, 0, "no such table: "+table)
		}
		seen := map[string]bool{}
		for _, row := range rows {
			if _, dup := existing[row[1]]; dup || seen[row[1]] {
				return categorized(database.CategoryConstraint, 0, "UNIQUE constraint failed")
			}
			seen[row[1]] = true
		}
		for _, row := range rows {
			existing[row[1]] = row
		}
		return nil

	case "UPDATE":
		existing, ok := db.tables[table]
		if !ok {
			return categorized(database.CategoryGrammar, 0, "no such table: "+table)
		}
		if db.failUpdates {
			return categorized(database.CategoryConstraint, 0, "CHECK constraint failed")
		}
		existing[rows[0][1]] = rows[0]
		return nil
	}

	return fmt.Errorf("unexpected statement %q", text)
}

func rebuildRows(values map[string]string) []Row {
	var rows []Row
	for name, value := range values {
		parts := strings.Split(strings.TrimPrefix(name, "_"), "_")
		r, _ := strconv.Atoi(parts[0])
		c, _ := strconv.Atoi(parts[1])
		for len(rows) <= r {
			rows = append(rows, Row{})
		}
		for len(rows[r]) <= c {
			rows[r] = append(rows[r], "")
		}
		rows[r][c] = value
	}
	return rows
}

func (db *fakeDB) Open(ctx context.Context) (session.Factory, error) {
	if db.openErr != nil {
		return nil, db.openErr
	}
	db.opens++
	db.connected = true
	return &fakeFactory{db: db}, nil
}

type fakeFactory struct {
	db     *fakeDB
	closed bool
}

func (f *fakeFactory) OpenSession(ctx context.Context) (session.Session, error) {
	return &fakeSession{db: f.db}, nil
}

func (f *fakeFactory) Close() error {
	f.closed = true
	f.db.closes++
	return nil
}

type fakeSession struct {
	db     *fakeDB
	closed bool
}

func (s *fakeSession) Prepare(text string) (session.Statement, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}
	return &fakeStatement{db: s.db, text: text, values: map[string]string{}}, nil
}

func (s *fakeSession) IsConnected(ctx context.Context) bool { return !s.closed && s.db.connected }
func (s *fakeSession) IsOpen() bool                         { return !s.closed }
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeStatement struct {
	db     *fakeDB
	text   string
	values map[string]string
	names  []string
}

func (st *fakeStatement) Text() string { return st.text }

func (st *fakeStatement) ParameterNames() []string {
	if st.names != nil {
		return st.names
	}
	var names []string
	for _, field := range strings.Fields(st.text) {
		if strings.HasPrefix(field, ":") {
			names = append(names, strings.TrimPrefix(field, ":"))
		}
	}
	return names
}

func (st *fakeStatement) SetString(name string, value string) error {
	st.values[name] = value
	return nil
}

func (st *fakeStatement) Exec(ctx context.Context) (int64, error) {
	return 0, st.db.exec(st.text, st.values)
}
