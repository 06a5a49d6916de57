package database

import (
	"database/sql"
	stdlog "log"

	"github.com/Tersy89/Share-sales-FIFO/src/logger"
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
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateBatchesTable()

	// Quantities and amounts are stored as TEXT so decimal values survive
	// the round trip exactly. Dates are ISO (YYYY-MM-DD) TEXT, which makes
	// ORDER BY date reproduce chronological order.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		source_format TEXT NOT NULL DEFAULT 'csv',
		transaction_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		code TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		fees TEXT NOT NULL,
		hash_id TEXT NOT NULL,
		FOREIGN KEY(batch_id) REFERENCES batches(id),
		UNIQUE(batch_id, hash_id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateBatchesTable adds columns introduced after the first release to
// existing databases.
func migrateBatchesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='batches'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'batches' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'batches' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'batches' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'batches' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(batches)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'batches'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'batches': %v", err)
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
				logger.L.Error("Error scanning column info for 'batches'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'batches': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'batches'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'batches': %v", err)
		}
		return
	}

	if _, ok := columnExists["source_format"]; !ok {
		_, err := DB.Exec("ALTER TABLE batches ADD COLUMN source_format TEXT NOT NULL DEFAULT 'csv'")
		if err != nil {
			logger.L.Error("Error adding 'source_format' column to 'batches' table", "error", err)
		} else {
			logger.L.Info("Added 'source_format' column to 'batches' table")
		}
	}

	if _, ok := columnExists["warning_count"]; !ok {
		_, err := DB.Exec("ALTER TABLE batches ADD COLUMN warning_count INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'warning_count' column to 'batches' table", "error", err)
		} else {
			logger.L.Info("Added 'warning_count' column to 'batches' table")
		}
	}
}
