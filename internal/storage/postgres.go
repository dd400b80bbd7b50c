package storage

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/xaenox/assistant-relay/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore is the database-backed alternative to FileStore for
// deployments that already run Postgres. Row-level locking replaces the
// file lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	store := &PostgresStore{db: db}

	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStore) GetCounter() (models.UsageCounter, error) {
	var counter models.UsageCounter
	err := s.db.QueryRow(`SELECT date, count FROM usage_counter WHERE id = 1`).
		Scan(&counter.Date, &counter.Count)
	if err == sql.ErrNoRows {
		return models.UsageCounter{}, nil
	}
	if err != nil {
		return models.UsageCounter{}, fmt.Errorf("error reading counter: %v", err)
	}
	return counter, nil
}

func (s *PostgresStore) SetCounter(counter models.UsageCounter) error {
	query := `
		INSERT INTO usage_counter (id, date, count)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET date = $1, count = $2`

	if _, err := s.db.Exec(query, counter.Date, counter.Count); err != nil {
		return fmt.Errorf("error writing counter: %v", err)
	}
	return nil
}

func (s *PostgresStore) AppendQA(record models.QARecord) error {
	query := `
		INSERT INTO qa_log (telegram_id, username, question, answer, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(query,
		record.TelegramID,
		record.Username,
		record.Question,
		record.Answer,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("error appending QA record: %v", err)
	}
	return nil
}

func (s *PostgresStore) ListQA() ([]models.QARecord, error) {
	query := `
		SELECT telegram_id, username, question, answer, recorded_at
		FROM qa_log
		ORDER BY id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying QA log: %v", err)
	}
	defer rows.Close()

	var records []models.QARecord
	for rows.Next() {
		var record models.QARecord
		err := rows.Scan(
			&record.TelegramID,
			&record.Username,
			&record.Question,
			&record.Answer,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning QA record: %v", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
