package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

// DailyTotal is one calendar day's worth of awarded points for the
// statistics view.
type DailyTotal struct {
	Day    string `db:"day" json:"day"`
	Points int    `db:"points" json:"points"`
}
