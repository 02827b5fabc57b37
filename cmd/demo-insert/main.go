// Command demo-insert is a small standalone tool that issues INSERT/UPDATE/
// DELETE statements against a real MySQL server, useful for generating
// traffic to watch binlogtail pick up while developing against it. It is
// not part of the replication engine itself.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	var (
		dsn    string
		stmt   string
		repeat int
	)
	flag.StringVar(&dsn, "dsn", "root:@tcp(127.0.0.1:3306)/test", "go-sql-driver DSN to connect with")
	flag.StringVar(&stmt, "stmt", "INSERT INTO demo(name) VALUES ('hello')", "statement to execute")
	flag.IntVar(&repeat, "repeat", 1, "how many times to execute the statement")
	flag.Parse()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo-insert: open %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "demo-insert: ping: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < repeat; i++ {
		result, err := db.Exec(stmt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "demo-insert: exec: %v\n", err)
			os.Exit(1)
		}
		affected, _ := result.RowsAffected()
		fmt.Printf("ok, %d row(s) affected\n", affected)
	}
}
