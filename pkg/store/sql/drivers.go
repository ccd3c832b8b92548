package sql

// Drivers available to data source profiles, keyed in profiles by the name
// each package registers with database/sql.
import (
	_ "github.com/databricks/databricks-sql-go" // databricks
	_ "github.com/denisenkom/go-mssqldb"        // sqlserver, mssql
	_ "github.com/go-sql-driver/mysql"          // mysql
	_ "github.com/jackc/pgx/v5/stdlib"          // pgx
	_ "github.com/marcboeker/go-duckdb/v2"      // duckdb
	_ "github.com/snowflakedb/gosnowflake"      // snowflake
	_ "modernc.org/sqlite"                      // sqlite
)
