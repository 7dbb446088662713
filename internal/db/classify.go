package db

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Class is the retry classification of a database error.
type Class int

const (
	// ClassPermanent errors (constraint violations, malformed queries,
	// logic errors) must never be retried.
	ClassPermanent Class = iota

	// ClassTransient errors (connectivity loss, store resuming from
	// auto-pause, timeouts) are expected to clear after a delay.
	ClassTransient
)

// PostgreSQL SQLSTATE codes that indicate the server cannot currently be
// reached or is not ready, rather than a fault in the request itself.
const (
	pgCodeCannotConnectNow    = "57P03"
	pgCodeAdminShutdown       = "57P01"
	pgCodeCrashShutdown       = "57P02"
	pgCodeTooManyConnections  = "53300"
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
)

// Message fragments emitted by serverless Postgres offerings while a
// suspended instance is waking up. Matched case-insensitively.
var resumingPatterns = []string{
	"is not currently accepting connections",
	"the database system is starting up",
	"the database system is shutting down",
	"database is paused",
	"compute is being resumed",
	"resuming",
}

// Classify decides whether an error is worth retrying.
// Context cancellation is deliberately transient here: a deadline blown
// while the store wakes up should be retried by the bounded loop, while
// caller-side cancellation is checked separately against ctx.Err().
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeCannotConnectNow, pgCodeAdminShutdown, pgCodeCrashShutdown, pgCodeTooManyConnections:
			return ClassTransient
		}
		if strings.HasPrefix(pgErr.Code, "08") { // connection_exception class
			return ClassTransient
		}
		return ClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range resumingPatterns {
		if strings.Contains(msg, pattern) {
			return ClassTransient
		}
	}
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "i/o timeout") {
		return ClassTransient
	}

	return ClassPermanent
}

// IsUniqueViolation reports whether err is a unique-constraint violation,
// typically from a lost get-or-create race on a natural key.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeUniqueViolation
	}
	// Fallback for errors that lost their type through wrapping.
	msg := err.Error()
	return strings.Contains(msg, pgCodeUniqueViolation) || strings.Contains(msg, "duplicate key")
}

// IsForeignKeyViolation reports whether err is a foreign-key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeForeignKeyViolation
	}
	return strings.Contains(err.Error(), pgCodeForeignKeyViolation)
}
