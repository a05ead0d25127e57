package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind tags the wire form of an event.
type EventKind string

const (
	KindQuizFinished EventKind = "quiz_finished"
	KindUserLogin    EventKind = "user_login"
	KindAnswerResult EventKind = "answer_result"
)

// ErrUnknownEventType is returned when decoding an envelope with an unrecognized type.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is an immutable fact about something a player did.
type Event interface {
	Subject() string
	Kind() EventKind
}

// QuizFinished is emitted when a player completes a quiz. Score is a percentage, 0..100.
type QuizFinished struct {
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Score      float64   `json:"score"`
	FinishedAt time.Time `json:"finished_at"`
}

func (e QuizFinished) Subject() string { return e.UserID }
func (e QuizFinished) Kind() EventKind { return KindQuizFinished }

type UserLogin struct {
	UserID string    `json:"user_id"`
	When   time.Time `json:"when"`
}

func (e UserLogin) Subject() string { return e.UserID }
func (e UserLogin) Kind() EventKind { return KindUserLogin }

// AnswerResult records the outcome of a single question.
type AnswerResult struct {
	UserID    string    `json:"user_id"`
	IsCorrect bool      `json:"is_correct"`
	When      time.Time `json:"when"`
	Category  string    `json:"category,omitempty"`
}

func (e AnswerResult) Subject() string { return e.UserID }
func (e AnswerResult) Kind() EventKind { return KindAnswerResult }

// DecodeEvent parses a JSON envelope {"type": "...", ...fields}.
func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Type EventKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch head.Type {
	case KindQuizFinished:
		var e QuizFinished
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return e, nil
	case KindUserLogin:
		var e UserLogin
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return e, nil
	case KindAnswerResult:
		var e AnswerResult
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}
}

// EncodeEvent renders ev in the envelope form accepted by DecodeEvent.
func EncodeEvent(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case QuizFinished:
		return json.Marshal(struct {
			Type EventKind `json:"type"`
			QuizFinished
		}{KindQuizFinished, e})
	case UserLogin:
		return json.Marshal(struct {
			Type EventKind `json:"type"`
			UserLogin
		}{KindUserLogin, e})
	case AnswerResult:
		return json.Marshal(struct {
			Type EventKind `json:"type"`
			AnswerResult
		}{KindAnswerResult, e})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}
}
