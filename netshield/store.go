package netshield

import (
	"context"

	"netshield/models"
)

// HistoryStore is the persistence capability the pipeline and agent consume.
// Implementations live in db (SQLite, Mongo) and history (JSON file).
//
// RecordsByEndpoint returns the union of source and destination matches
// without deduplication: a record whose src and dst both equal the address
// appears twice.
type HistoryStore interface {
	AppendRecord(ctx context.Context, record *models.AnalysisRecord) error
	AllRecords(ctx context.Context) ([]models.AnalysisRecord, error)
	RecordsByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error)
	RecordsByEndpoint(ctx context.Context, address string) ([]models.AnalysisRecord, error)
}
