// Command seed-student-db creates the sample student.db used by the sqlite
// connection kind, so the service can be tried without a networked database.
package main

import (
	"database/sql"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS STUDENT (
    NAME TEXT NOT NULL,
    CLASS TEXT NOT NULL,
    SECTION TEXT NOT NULL,
    MARKS INTEGER NOT NULL
);
`

type student struct {
	name    string
	class   string
	section string
	marks   int
}

var students = []student{
	{"Krish", "Data Science", "A", 90},
	{"John", "Data Science", "B", 100},
	{"Mukesh", "Data Science", "A", 86},
	{"Jacob", "DEVOPS", "A", 50},
	{"Dipesh", "DEVOPS", "A", 35},
	{"Ananya", "Data Science", "B", 78},
	{"Rohan", "AI", "A", 88},
	{"Meena", "Cyber Security", "C", 64},
	{"Suresh", "AI", "B", 72},
	{"Priya", "Data Science", "A", 93},
	{"Rahul", "Cloud Computing", "B", 81},
	{"Neha", "DEVOPS", "C", 59},
	{"Amit", "Data Science", "B", 76},
	{"Simran", "AI", "A", 91},
	{"Karan", "Cyber Security", "B", 70},
	{"Aisha", "Cloud Computing", "A", 89},
	{"Vikas", "Data Science", "C", 66},
	{"Sneha", "DEVOPS", "B", 74},
	{"Pankaj", "AI", "C", 61},
	{"Tina", "Cyber Security", "A", 90},
	{"Varun", "Cloud Computing", "B", 79},
	{"Divya", "DEVOPS", "C", 55},
	{"Arjun", "Data Science", "B", 80},
	{"Kriti", "AI", "A", 95},
	{"Suraj", "Cyber Security", "C", 60},
	{"Ishita", "Cloud Computing", "B", 83},
	{"Yash", "DEVOPS", "A", 87},
	{"Ritika", "AI", "B", 77},
	{"Nikhil", "Data Science", "A", 92},
	{"Aarav", "Cloud Computing", "C", 58},
	{"Sanya", "Cyber Security", "B", 69},
	{"Harsh", "AI", "C", 62},
	{"Mitali", "DEVOPS", "B", 75},
	{"Aditya", "Data Science", "A", 85},
	{"Komal", "Cloud Computing", "B", 84},
	{"Dhruv", "Cyber Security", "C", 57},
	{"Tanvi", "AI", "A", 94},
	{"Ravi", "DEVOPS", "B", 73},
	{"Preeti", "Cloud Computing", "C", 56},
	{"Gaurav", "Cyber Security", "B", 68},
	{"Bhavna", "Data Science", "A", 89},
	{"Manav", "DEVOPS", "C", 54},
	{"Rhea", "AI", "B", 79},
	{"Vivek", "Cloud Computing", "A", 90},
	{"Snehal", "Data Science", "C", 67},
	{"Nidhi", "Cyber Security", "A", 88},
	{"Laksh", "AI", "B", 71},
	{"Shreya", "Cloud Computing", "A", 91},
	{"Aryan", "DEVOPS", "C", 53},
	{"Naina", "Cyber Security", "B", 65},
	{"Ayan", "Data Science", "A", 96},
}

func main() {
	path := flag.String("path", "student.db", "where to create the sample database")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	db, err := sql.Open("sqlite", *path)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		log.Fatal().Err(err).Msg("create table")
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatal().Err(err).Msg("begin transaction")
	}
	for _, s := range students {
		if _, err := tx.Exec(
			"INSERT INTO STUDENT (NAME, CLASS, SECTION, MARKS) VALUES (?, ?, ?, ?)",
			s.name, s.class, s.section, s.marks,
		); err != nil {
			_ = tx.Rollback()
			log.Fatal().Err(err).Str("name", s.name).Msg("insert student")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Fatal().Err(err).Msg("commit")
	}

	log.Info().Str("path", *path).Int("students", len(students)).Msg("sample database ready")
}
