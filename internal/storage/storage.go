package storage

import "github.com/xaenox/assistant-relay/internal/models"

// UsageStore persists the daily usage counter and the question/answer log.
type UsageStore interface {
	GetCounter() (models.UsageCounter, error)
	SetCounter(counter models.UsageCounter) error
	AppendQA(record models.QARecord) error
	ListQA() ([]models.QARecord, error)
	Close() error
}
