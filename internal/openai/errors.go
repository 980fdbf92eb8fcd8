package openai

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal oracle failure. The batch coordinator and the
// API layer key remediation messages and HTTP statuses off it.
type Kind int

const (
	KindTransport Kind = iota
	KindAuth
	KindRateLimited
	KindHTTP
	KindTimeout
	KindTruncated
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindHTTP:
		return "http"
	case KindTimeout:
		return "timeout"
	case KindTruncated:
		return "truncated"
	case KindParse:
		return "parse"
	default:
		return "transport"
	}
}

// Error is a classified oracle failure. Message carries raw diagnostic
// detail for logging; Remediation is the user-facing hint.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, when the failure had one
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("oracle %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("oracle %s: %s", e.Kind, e.Message)
}

// Remediation returns the actionable user-facing message for this failure.
// Raw diagnostic detail stays in logs, never here.
func (e *Error) Remediation() string {
	switch e.Kind {
	case KindAuth:
		return "API key invalid or unauthorized. Check that your OPENAI_API_KEY is correct and active."
	case KindRateLimited:
		return "Rate limit exceeded. Wait a few minutes and try again."
	case KindTimeout:
		return "The analysis took too long. Try simplifying the prompt or reducing the conversation size."
	case KindTruncated, KindParse:
		return "The response was cut short because it was too long. Use a more concise prompt or reduce the block count."
	default:
		return "The scoring service returned an error. Try again shortly."
	}
}

// KindOf extracts the failure kind from an error chain, defaulting to
// KindTransport for unclassified errors.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindTransport
}
