package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/SAP-F-2025/scoring-service/internal/models"
)

// EventType represents the scoring lifecycle events published downstream
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptGraded    EventType = "attempt.graded"

	// Result events
	EventResultRecorded      EventType = "attempt.result_recorded"
	EventCertificateEligible EventType = "certificate.eligible"
)

// ScoringEvent is the envelope every published event travels in
type ScoringEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewScoringEvent wraps a payload in the standard envelope
func NewScoringEvent(eventType EventType, data interface{}) *ScoringEvent {
	return &ScoringEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "scoring-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	ExamID        uint      `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	StudentID     string    `json:"student_id"`
	StartedAt     time.Time `json:"started_at"`
	QuestionCount int       `json:"question_count"`
}

type AttemptSubmittedEvent struct {
	AttemptID   uint      `json:"attempt_id"`
	ExamID      uint      `json:"exam_id"`
	StudentID   string    `json:"student_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Answered    int       `json:"answered"`
}

type AttemptGradedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	ExamID        uint      `json:"exam_id"`
	StudentID     string    `json:"student_id"`
	GradedAt      time.Time `json:"graded_at"`
	MarksObtained float64   `json:"marks_obtained"`
	MaxMarks      float64   `json:"max_marks"`
	Percentage    float64   `json:"percentage"`
	Passed        bool      `json:"passed"`
	Grade         string    `json:"grade"`
}

// Result event payloads

type ResultRecordedEvent struct {
	AttemptID      uint                                             `json:"attempt_id"`
	ExamID         uint                                             `json:"exam_id"`
	StudentID      string                                           `json:"student_id"`
	TotalQuestions int                                              `json:"total_questions"`
	Correct        int                                              `json:"correct"`
	Wrong          int                                              `json:"wrong"`
	Unanswered     int                                              `json:"unanswered"`
	Percentage     float64                                          `json:"percentage"`
	Grade          string                                           `json:"grade"`
	ByDifficulty   map[models.DifficultyLevel]models.DifficultyBucket `json:"by_difficulty,omitempty"`
}

// CertificateEligibleEvent fires when a passed attempt qualifies the
// student for a certificate; the certificate service owns issuance.
type CertificateEligibleEvent struct {
	AttemptID  uint    `json:"attempt_id"`
	ExamID     uint    `json:"exam_id"`
	StudentID  string  `json:"student_id"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}
