package dbconn

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateStatementAllowsSelect(t *testing.T) {
	ok := []string{
		"SELECT 1",
		"select name, marks from student where class = 'AI'",
		"SELECT * FROM student ORDER BY marks DESC LIMIT 5;",
		"WITH top AS (SELECT name FROM student) SELECT * FROM top",
		"SELECT 'insert update delete' AS tricky FROM student",
		"SELECT name -- drop table student\nFROM student",
		"SELECT /* delete */ count(*) FROM student",
	}
	for _, stmt := range ok {
		if err := validateStatement(stmt); err != nil {
			t.Fatalf("expected %q to pass, got %v", stmt, err)
		}
	}
}

func TestValidateStatementBlocksWrites(t *testing.T) {
	bad := []string{
		"",
		"   ;  ",
		"INSERT INTO student VALUES ('x', 'y', 'z', 1)",
		"UPDATE student SET marks = 0",
		"DELETE FROM student",
		"DROP TABLE student",
		"CREATE TABLE t (id INT)",
		"SELECT 1; DROP TABLE student",
		"select * from student; delete from student",
		"PRAGMA writable_schema = 1",
		"SELECT * FROM student FOR UPDATE",
		"ATTACH DATABASE 'other.db' AS other",
	}
	for _, stmt := range bad {
		err := validateStatement(stmt)
		if err == nil {
			t.Fatalf("expected %q to be blocked", stmt)
		}
		var blocked *BlockedError
		if !errors.As(err, &blocked) {
			t.Fatalf("expected BlockedError for %q, got %T", stmt, err)
		}
	}
}

func TestStripStringsAndComments(t *testing.T) {
	got := stripStringsAndComments("SELECT 'a -- not a comment', \"col\" -- real comment\nFROM t /* block */ WHERE x = 'it''s'")
	for _, fragment := range []string{"not a comment", "real comment", "block", "it''s", "col"} {
		if strings.Contains(got, fragment) {
			t.Fatalf("fragment %q survived stripping: %q", fragment, got)
		}
	}
	if !strings.Contains(got, "FROM t") {
		t.Fatalf("code outside literals should survive, got %q", got)
	}
}
