package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/shrinklens/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	}
	migrateRecordTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS shrink_records (
		id TEXT PRIMARY KEY,
		item_number TEXT,
		item_name TEXT NOT NULL,
		inv_variance REAL NOT NULL,
		revenue REAL NOT NULL DEFAULT 0,
		sold_qty REAL NOT NULL DEFAULT 0,
		sale_price REAL NOT NULL DEFAULT 0,
		item_cost REAL NOT NULL DEFAULT 0,
		shrink_loss REAL NOT NULL DEFAULT 0,
		overage_gain REAL NOT NULL DEFAULT 0,
		item_profit REAL NOT NULL DEFAULT 0,
		market TEXT NOT NULL,
		period TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_shrink_records_period ON shrink_records(period);

	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	}
}

// migrateRecordTable backfills columns added after the first release. The
// table may not exist yet on a fresh database; that is not a migration case.
func migrateRecordTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='shrink_records'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for shrink_records table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(shrink_records)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for shrink_records", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for shrink_records", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for shrink_records", "error", err)
		}
		return
	}

	if _, ok := columnExists["item_profit"]; !ok {
		if _, err := DB.Exec("ALTER TABLE shrink_records ADD COLUMN item_profit REAL NOT NULL DEFAULT 0"); err != nil {
			logger.L.Error("Error adding item_profit column to shrink_records", "error", err)
		} else {
			logger.L.Info("Added item_profit column to shrink_records table")
			if _, err := DB.Exec("UPDATE shrink_records SET item_profit = (sale_price - item_cost) * sold_qty WHERE item_profit = 0"); err != nil {
				logger.L.Error("Error backfilling item_profit values", "error", err)
			}
		}
	}
	if _, ok := columnExists["sold_qty"]; !ok {
		if _, err := DB.Exec("ALTER TABLE shrink_records ADD COLUMN sold_qty REAL NOT NULL DEFAULT 0"); err != nil {
			logger.L.Error("Error adding sold_qty column to shrink_records", "error", err)
		} else {
			logger.L.Info("Added sold_qty column to shrink_records table")
		}
	}
}
