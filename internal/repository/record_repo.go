package repository

import (
	"context"
	"database/sql"
	"fmt"

	"scamcheck/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// RecordRepository persists conversation records in sqlite.
type RecordRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRecordRepository opens the database and runs migrations.
func NewRecordRepository(dbPath string, logger *zap.Logger) (*RecordRepository, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &RecordRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Record repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

func (r *RecordRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		identity_id TEXT NOT NULL,
		text TEXT NOT NULL,
		sender TEXT NOT NULL,
		created_at DATETIME,
		level TEXT,
		confidence_percent INTEGER,
		is_scam BOOLEAN,
		explanation TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_records_identity ON records(identity_id);
	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// recordRow flattens the optional classification into nullable columns.
type recordRow struct {
	ID          string         `db:"id"`
	IdentityID  string         `db:"identity_id"`
	Text        string         `db:"text"`
	Sender      string         `db:"sender"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	Level       sql.NullString `db:"level"`
	Confidence  sql.NullInt64  `db:"confidence_percent"`
	IsScam      sql.NullBool   `db:"is_scam"`
	Explanation sql.NullString `db:"explanation"`
}

func toRow(rec *models.Record) recordRow {
	row := recordRow{
		ID:         rec.ID,
		IdentityID: rec.IdentityID,
		Text:       rec.Text,
		Sender:     string(rec.Sender),
	}
	if rec.CreatedAt != nil {
		row.CreatedAt = sql.NullTime{Time: *rec.CreatedAt, Valid: true}
	}
	if c := rec.Classification; c != nil {
		row.Level = sql.NullString{String: string(c.Level), Valid: true}
		row.Confidence = sql.NullInt64{Int64: int64(c.ConfidencePercent), Valid: true}
		row.IsScam = sql.NullBool{Bool: c.IsScam, Valid: true}
		row.Explanation = sql.NullString{String: c.Explanation, Valid: true}
	}
	return row
}

func (row recordRow) toRecord() models.Record {
	rec := models.Record{
		ID:         row.ID,
		IdentityID: row.IdentityID,
		Text:       row.Text,
		Sender:     models.Sender(row.Sender),
	}
	if row.CreatedAt.Valid {
		t := row.CreatedAt.Time
		rec.CreatedAt = &t
	}
	if row.Level.Valid {
		rec.Classification = &models.Classification{
			Level:             models.Level(row.Level.String),
			ConfidencePercent: int(row.Confidence.Int64),
			IsScam:            row.IsScam.Bool,
			Explanation:       row.Explanation.String,
		}
	}
	return rec
}

// Insert stores a single record.
func (r *RecordRepository) Insert(ctx context.Context, rec *models.Record) error {
	query := `
		INSERT INTO records (
			id, identity_id, text, sender, created_at,
			level, confidence_percent, is_scam, explanation
		) VALUES (
			:id, :identity_id, :text, :sender, :created_at,
			:level, :confidence_percent, :is_scam, :explanation
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, toRow(rec)); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// ListByIdentity returns all records for one identity in append order.
func (r *RecordRepository) ListByIdentity(ctx context.Context, identityID string) ([]models.Record, error) {
	query := `
		SELECT id, identity_id, text, sender, created_at,
		       level, confidence_percent, is_scam, explanation
		FROM records
		WHERE identity_id = ?
		ORDER BY rowid
	`

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, identityID); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}

	return records, nil
}

// CountByIdentity returns the number of records in one identity's log.
func (r *RecordRepository) CountByIdentity(ctx context.Context, identityID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM records WHERE identity_id = ?`, identityID)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (r *RecordRepository) Close() error {
	return r.db.Close()
}
