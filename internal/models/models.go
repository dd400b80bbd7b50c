package models

import "time"

// DateLayout is the calendar-date format used by the usage counter.
const DateLayout = "2006-01-02"

// UsageCounter is the persisted daily message counter. Count is the number
// of questions answered since midnight on Date; a stored Date other than
// today means the effective count is zero.
type UsageCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EffectiveCount returns Count if the counter belongs to the given day,
// zero otherwise (lazy day rollover).
func (c UsageCounter) EffectiveCount(today string) int {
	if c.Date != today {
		return 0
	}
	return c.Count
}

// QARecord is one answered question, appended to the persisted log.
type QARecord struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Timestamp  string `json:"timestamp"`
}

// NewQARecord stamps a record with the given instant in RFC 3339.
func NewQARecord(telegramID int64, username, question, answer string, now time.Time) QARecord {
	return QARecord{
		TelegramID: telegramID,
		Username:   username,
		Question:   question,
		Answer:     answer,
		Timestamp:  now.Format(time.RFC3339),
	}
}
