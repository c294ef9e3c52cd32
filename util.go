package ras

// WhichSQLiteDriver names the database/sql driver used to read BGEN indexes.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
