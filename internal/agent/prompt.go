package agent

import (
	"fmt"
	"strings"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/dbconn"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/providers"
)

var dialectName = map[dbconn.Kind]string{
	dbconn.KindSQLite:   "SQLite",
	dbconn.KindMySQL:    "MySQL",
	dbconn.KindPostgres: "PostgreSQL",
}

func sqlSystemPrompt(kind dbconn.Kind, schema []dbconn.TableInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You translate questions into %s queries.\n", dialectName[kind])
	b.WriteString("Rules:\n")
	b.WriteString("- Reply with exactly one SELECT statement and nothing else. No explanation, no code fences.\n")
	b.WriteString("- Never write, modify or define data. Only SELECT is allowed.\n")
	b.WriteString("- Only use the tables and columns listed below.\n\n")
	b.WriteString(renderSchema(schema))
	return b.String()
}

func renderSchema(schema []dbconn.TableInfo) string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	for _, t := range schema {
		fmt.Fprintf(&b, "\nTable %s (", t.Name)
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s %s", col.Name, col.Type)
		}
		b.WriteString(")\n")
		if t.Sample != nil && len(t.Sample.Rows) > 0 {
			b.WriteString("Sample rows:\n")
			b.WriteString(t.Sample.Text())
		}
	}
	return b.String()
}

func sqlMessages(question string, history []providers.Message, schema []dbconn.TableInfo, kind dbconn.Kind, feedback string) []providers.Message {
	msgs := []providers.Message{{Role: providers.RoleSystem, Content: sqlSystemPrompt(kind, schema)}}
	msgs = append(msgs, history...)
	user := question
	if feedback != "" {
		user = question + "\n\n" + feedback
	}
	return append(msgs, providers.Message{Role: providers.RoleUser, Content: user})
}

func answerMessages(question string, history []providers.Message, stmt string, result *dbconn.Result) []providers.Message {
	system := "You answer questions about data in a relational database. " +
		"The user's question was already translated to SQL and executed; " +
		"answer concisely from the result below. If the result is empty, say so. " +
		"Do not invent values that are not in the result.\n\n" +
		fmt.Sprintf("Query:\n%s\n\nResult:\n%s", stmt, result.Text())

	msgs := []providers.Message{{Role: providers.RoleSystem, Content: system}}
	msgs = append(msgs, history...)
	return append(msgs, providers.Message{Role: providers.RoleUser, Content: question})
}

// cleanSQL strips code fences, a leading language tag and trailing semicolons
// from a model reply, leaving the bare statement.
func cleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
		for _, tag := range []string{"sql", "SQL", "sqlite", "mysql", "postgresql", "postgres"} {
			if strings.HasPrefix(s, tag+"\n") || strings.HasPrefix(s, tag+" ") {
				s = s[len(tag):]
				break
			}
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}
