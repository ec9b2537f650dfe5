package db

import (
	"context"
	"fmt"
	"strings"

	"netshield/models"
	"netshield/utils"
)

// Client is a combined history + user store backend.
type Client interface {
	Close() error

	AppendRecord(ctx context.Context, record *models.AnalysisRecord) error
	AllRecords(ctx context.Context) ([]models.AnalysisRecord, error)
	RecordsByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error)
	RecordsByEndpoint(ctx context.Context, address string) ([]models.AnalysisRecord, error)

	CreateUser(ctx context.Context, user *models.User) error
	UserByUsername(ctx context.Context, username string) (models.User, bool, error)
	UserByEmail(ctx context.Context, email string) (models.User, bool, error)
	UserByID(ctx context.Context, id int64) (models.User, bool, error)
}

// UseJSONHistory reports whether DB_TYPE routes history records to the JSON
// file store instead of the database backend. Accounts always live in the
// database.
func UseJSONHistory() bool {
	return strings.EqualFold(utils.GetEnv("DB_TYPE", "sqlite"), "json")
}

// HistoryFilePath is the JSON store location used when UseJSONHistory is
// true.
func HistoryFilePath() string {
	return utils.GetEnv("HISTORY_FILE", "db/history.json")
}

// NewDBClient picks the backend from DB_TYPE (sqlite or mongo; sqlite is the
// default).
func NewDBClient(ctx context.Context) (Client, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))

	switch dbType {
	case "sqlite", "json", "":
		// DB_TYPE=json moves history into the JSON file store; accounts
		// still live in sqlite.
		return NewSQLiteClient(utils.GetEnv("SQLITE_DB_PATH", "db/netshield.db"))
	case "mongo", "mongodb":
		return NewMongoClient(ctx, utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"))
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}
