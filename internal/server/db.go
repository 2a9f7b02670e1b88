package server

import (
	"database/sql"
	"fmt"

	"cordis/internal/config"
)

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

// OpenDatabase connects to mysql, or sqlite when running self-contained, and
// creates the tables. Server role/category/member structure and user settings
// are stored as JSON text columns; only fields the API filters on get their
// own column.
func OpenDatabase(cfg config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if cfg.SelfContained {
		db, err = sql.Open("sqlite", "./database.db")
		if err != nil {
			return nil, err
		}

		// there can be sqlite busy errors if this is not set to 1
		db.SetMaxOpenConns(1)

		if err := setPragmaValues(db); err != nil {
			return nil, err
		}
	} else {
		// clientFoundRows makes RowsAffected report matched rows, not changed
		// rows; the upsert's update-then-insert depends on that
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s&clientFoundRows=true",
			cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(10)
	}

	if err := setupTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

func setupTables(db *sql.DB) error {
	var err error

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(64) PRIMARY KEY,
				username VARCHAR(32) NOT NULL,
				discriminator VARCHAR(8) NOT NULL,
				avatar TEXT,
				status VARCHAR(16) NOT NULL,
				settings TEXT NOT NULL
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS friends (
				user_id VARCHAR(64) NOT NULL,
				friend_id VARCHAR(64) NOT NULL,
				PRIMARY KEY (user_id, friend_id),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (friend_id) REFERENCES users(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS servers (
				id VARCHAR(64) PRIMARY KEY,
				owner_id VARCHAR(64) NOT NULL,
				name VARCHAR(64) NOT NULL,
				icon TEXT,
				description TEXT,
				roles TEXT NOT NULL,
				categories TEXT NOT NULL,
				members TEXT NOT NULL
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS messages (
				id VARCHAR(64) PRIMARY KEY,
				channel_id VARCHAR(64) NOT NULL,
				sender_id VARCHAR(64) NOT NULL,
				content TEXT NOT NULL,
				reply_to_id VARCHAR(64),
				attachment TEXT,
				timestamp VARCHAR(40) NOT NULL
			);
		`)
	if err != nil {
		return err
	}

	return nil
}
