package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFeedbackNotFound  = errors.New("feedback not found")
	ErrInterviewNotFound = errors.New("interview not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidTranscript = errors.New("invalid transcript")
	ErrInvalidScore      = errors.New("invalid score")
	// ErrStaleAttempt means a terminal write targeted a record that is no
	// longer processing for the same submission attempt.
	ErrStaleAttempt = errors.New("feedback attempt superseded or already finalized")
)

// SubmissionError is returned when a feedback job could not be created.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit feedback job: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// MalformedResponseError carries the raw upstream text that no parser accepted.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return "failed to parse questions from AI response"
}

// MissingFieldsError lists required request fields that were left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %v", e.Fields)
}

func (e *MissingFieldsError) Unwrap() error { return ErrInvalidRequest }
