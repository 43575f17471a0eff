package service

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned when a newer request made this result obsolete.
	ErrSuperseded = errors.New("result superseded by a newer request")
	// ErrChatSkipped is returned for blank messages or when no analysis is loaded.
	ErrChatSkipped = errors.New("chat message skipped")
	// ErrSessionNotFound is returned for unknown or evicted session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError rejects user input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type AnalysisFetchError struct {
	Symbol    string
	Timeframe string
	Err       error
}

func (e *AnalysisFetchError) Error() string {
	return fmt.Sprintf("failed to analyze %s (%s): %v", e.Symbol, e.Timeframe, e.Err)
}

func (e *AnalysisFetchError) Unwrap() error {
	return e.Err
}

type FundamentalsFetchError struct {
	Symbol string
	Err    error
}

func (e *FundamentalsFetchError) Error() string {
	return fmt.Sprintf("failed to fetch fundamentals for %s: %v", e.Symbol, e.Err)
}

func (e *FundamentalsFetchError) Unwrap() error {
	return e.Err
}

type ChatFetchError struct {
	Symbol string
	Err    error
}

func (e *ChatFetchError) Error() string {
	return fmt.Sprintf("chat about %s failed: %v", e.Symbol, e.Err)
}

func (e *ChatFetchError) Unwrap() error {
	return e.Err
}
