// Package sqlite stores archviz sessions in a SQLite database.
//
// Every key is one row of a single table (key, system, document, updated_at).
// The document column holds the JSON envelope written by store.Marshal; the
// system and updated_at columns are kept alongside so sessions can be listed
// without decoding them.
//
//	s, err := sqlite.NewSqliteStateStore(sqlite.SqliteOptions{
//		Path: "./archviz.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// The driver is github.com/mattn/go-sqlite3, which needs cgo.
package sqlite
