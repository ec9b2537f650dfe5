package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"netshield/models"
	"netshield/utils"
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createUsersTable := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT NOT NULL UNIQUE,
        email TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    `

	createHistoryTable := `
    CREATE TABLE IF NOT EXISTS analysis_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        filename TEXT NOT NULL,
        result TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        src_ip TEXT,
        dst_ip TEXT,
        user_id INTEGER
    );
    CREATE INDEX IF NOT EXISTS idx_history_timestamp ON analysis_history(timestamp);
    CREATE INDEX IF NOT EXISTS idx_history_src_ip ON analysis_history(src_ip);
    CREATE INDEX IF NOT EXISTS idx_history_dst_ip ON analysis_history(dst_ip);
    CREATE INDEX IF NOT EXISTS idx_history_user ON analysis_history(user_id);
    `

	if _, err := db.Exec(createUsersTable); err != nil {
		return fmt.Errorf("error creating users table: %s", err)
	}

	if _, err := db.Exec(createHistoryTable); err != nil {
		return fmt.Errorf("error creating analysis_history table: %s", err)
	}

	return nil
}

func (c *SQLiteClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// AppendRecord stores a classification result and assigns its ID.
func (c *SQLiteClient) AppendRecord(ctx context.Context, record *models.AnalysisRecord) error {
	result, err := c.db.ExecContext(ctx, `
		INSERT INTO analysis_history (filename, result, confidence, timestamp, src_ip, dst_ip, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Filename,
		record.Result,
		record.Confidence,
		record.Timestamp,
		record.SrcIP,
		record.DstIP,
		record.UserID,
	)
	if err != nil {
		return fmt.Errorf("error storing analysis record: %s", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted record id: %s", err)
	}
	record.ID = strconv.FormatInt(id, 10)
	return nil
}

const recordColumns = "id, filename, result, confidence, timestamp, src_ip, dst_ip, user_id"

func (c *SQLiteClient) AllRecords(ctx context.Context) ([]models.AnalysisRecord, error) {
	return c.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM analysis_history
		ORDER BY timestamp DESC
	`)
}

func (c *SQLiteClient) RecordsByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error) {
	return c.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM analysis_history
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`, userID)
}

// RecordsByEndpoint returns the union of source and destination matches.
// UNION ALL keeps a record matching both sides in the result twice.
func (c *SQLiteClient) RecordsByEndpoint(ctx context.Context, address string) ([]models.AnalysisRecord, error) {
	return c.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM analysis_history WHERE src_ip = ?
		UNION ALL
		SELECT `+recordColumns+` FROM analysis_history WHERE dst_ip = ?
	`, address, address)
}

func (c *SQLiteClient) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.AnalysisRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying analysis records: %s", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		var id int64

		if err := rows.Scan(
			&id,
			&record.Filename,
			&record.Result,
			&record.Confidence,
			&record.Timestamp,
			&record.SrcIP,
			&record.DstIP,
			&record.UserID,
		); err != nil {
			return nil, fmt.Errorf("error scanning analysis record: %s", err)
		}

		record.ID = strconv.FormatInt(id, 10)
		records = append(records, record)
	}

	return records, rows.Err()
}

func (c *SQLiteClient) CreateUser(ctx context.Context, user *models.User) error {
	result, err := c.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		user.Username, user.Email, user.PasswordHash,
	)
	if err != nil {
		// Check for constraint violation by examining error message (cross-platform compatible)
		errMsg := err.Error()
		if strings.Contains(errMsg, "UNIQUE constraint") || strings.Contains(errMsg, "constraint failed") {
			return fmt.Errorf("user already exists: %v", err)
		}
		return fmt.Errorf("failed to create user: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted user id: %s", err)
	}
	user.ID = id
	return nil
}

var userFilterKeys = "id | username | email"

func (c *SQLiteClient) getUser(ctx context.Context, filterKey string, value interface{}) (models.User, bool, error) {
	if !strings.Contains(userFilterKeys, filterKey) {
		return models.User{}, false, fmt.Errorf("invalid filter key")
	}

	query := fmt.Sprintf("SELECT id, username, email, password_hash, created_at FROM users WHERE %s = ?", filterKey)
	row := c.db.QueryRowContext(ctx, query, value)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("failed to retrieve user: %s", err)
	}

	return user, true, nil
}

func (c *SQLiteClient) UserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	return c.getUser(ctx, "username", username)
}

func (c *SQLiteClient) UserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return c.getUser(ctx, "email", email)
}

func (c *SQLiteClient) UserByID(ctx context.Context, id int64) (models.User, bool, error) {
	return c.getUser(ctx, "id", id)
}
