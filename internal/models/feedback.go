package models

import "time"

// Sentiment is the overall tone of a feedback entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists the valid sentiments in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Label is the human readable badge text for s.
func (s Sentiment) Label() string {
	switch s {
	case SentimentPositive:
		return "Positive"
	case SentimentNegative:
		return "Needs Improvement"
	default:
		return "Neutral"
	}
}

// Feedback is a feedback record as returned by the API. Timestamps are kept
// exactly as the server sent them.
type Feedback struct {
	ID             string    `json:"id"`
	ManagerID      string    `json:"managerId"`
	EmployeeID     string    `json:"employeeId"`
	ManagerName    string    `json:"managerName"`
	EmployeeName   string    `json:"employeeName"`
	Strengths      string    `json:"strengths"`
	AreasToImprove string    `json:"areasToImprove"`
	Sentiment      Sentiment `json:"sentiment"`
	Acknowledged   bool      `json:"acknowledged"`
	AcknowledgedAt string    `json:"acknowledgedAt,omitempty"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

// Draft is the body of a create request. Acknowledged always starts false
// on the server.
type Draft struct {
	EmployeeID     string    `json:"employeeId" validate:"required"`
	Strengths      string    `json:"strengths" validate:"notblank"`
	AreasToImprove string    `json:"areasToImprove" validate:"notblank"`
	Sentiment      Sentiment `json:"sentiment" validate:"required,oneof=positive neutral negative"`
}

// Changes is a partial update. Nil fields are left untouched by the server.
type Changes struct {
	Strengths      *string    `json:"strengths,omitempty" validate:"omitnil,notblank"`
	AreasToImprove *string    `json:"areasToImprove,omitempty" validate:"omitnil,notblank"`
	Sentiment      *Sentiment `json:"sentiment,omitempty" validate:"omitnil,oneof=positive neutral negative"`
}

func (c Changes) Empty() bool {
	return c.Strengths == nil && c.AreasToImprove == nil && c.Sentiment == nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the API is known to emit:
// RFC 3339, naive ISO 8601 with optional fraction, and plain dates.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
