package mifoto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed edit for the user.
type ErrorKind string

const (
	KindMissingCredential  ErrorKind = "missing_credential"
	KindInvalidCredential  ErrorKind = "invalid_credential"
	KindBlockedByPolicy    ErrorKind = "blocked_by_policy"
	KindSafetyRejected     ErrorKind = "safety_rejected"
	KindTextInsteadOfImage ErrorKind = "text_instead_of_image"
	KindNoResponse         ErrorKind = "no_response"
	KindNoImageProduced    ErrorKind = "no_image_produced"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindRemote             ErrorKind = "remote"
	KindUnknown            ErrorKind = "unknown"
)

// Link is a documentation pointer attached to an error. Links are data, the
// caller decides how to render them.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Known documentation links.
var (
	LinkQuotaDocs = Link{Title: "Learn more about Gemini API quotas", URL: "https://ai.google.dev/gemini-api/docs/rate-limits"}
	LinkUsage     = Link{Title: "Check your usage", URL: "https://ai.dev/usage?tab=rate-limit"}
	LinkBilling   = Link{Title: "Gemini API billing", URL: "https://ai.google.dev/gemini-api/docs/billing"}
)

// EditError is the classified failure of an edit request. Message is plain
// text and safe to show verbatim.
type EditError struct {
	Kind    ErrorKind
	Message string

	// Reason is the remote block reason or status, if any.
	Reason string

	// Text is the explanatory text the model returned instead of an image.
	Text string

	// RetryDelay is the remote retry hint (e.g. "37s"), if any.
	RetryDelay string

	Links []Link

	Err error // Underlying error from the provider
}

func (e *EditError) Error() string {
	return e.Message
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a classified error, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var editErr *EditError
	if errors.As(err, &editErr) {
		return editErr.Kind
	}
	return KindUnknown
}

// IsInvalidCredential checks if an error means the credential must be discarded.
func IsInvalidCredential(err error) bool {
	return KindOf(err) == KindInvalidCredential
}

// IsQuotaExceeded checks if an error is a rate limit or exhausted quota.
func IsQuotaExceeded(err error) bool {
	return KindOf(err) == KindQuotaExceeded
}

// NewMissingCredential is returned before any request is made when no usable
// credential is available.
func NewMissingCredential() *EditError {
	return &EditError{
		Kind:    KindMissingCredential,
		Message: "An API key is required. Please provide a Google AI Studio API key to continue.",
		Links:   []Link{LinkBilling},
	}
}

// NewBlockedByPolicy reports a prompt rejected before generation.
func NewBlockedByPolicy(reason, detail string) *EditError {
	msg := fmt.Sprintf("The generation failed because the request was blocked. Reason: %s.", reason)
	if detail = strings.TrimSpace(detail); detail != "" {
		msg += " " + detail
	}
	return &EditError{Kind: KindBlockedByPolicy, Message: msg, Reason: reason}
}

// NewSafetyRejected reports a generation declined for safety reasons.
func NewSafetyRejected() *EditError {
	return &EditError{
		Kind:    KindSafetyRejected,
		Message: "The generation failed for safety reasons. Please try a different instruction or another image.",
		Reason:  "SAFETY",
	}
}

// NewTextInsteadOfImage carries the model's text verbatim.
func NewTextInsteadOfImage(text string) *EditError {
	return &EditError{
		Kind:    KindTextInsteadOfImage,
		Message: fmt.Sprintf("The API returned a text answer instead of an image: %q", text),
		Text:    text,
	}
}

// NewNoResponse reports a response without any candidate.
func NewNoResponse() *EditError {
	return &EditError{
		Kind:    KindNoResponse,
		Message: "The API did not return a valid response. This can be caused by a network error or a server-side problem.",
	}
}

// NewNoImageProduced is the catch-all for responses without an image.
func NewNoImageProduced() *EditError {
	return &EditError{
		Kind:    KindNoImageProduced,
		Message: "The API did not generate an image. The response contained no image data and no specific reason.",
	}
}

// NewQuotaExceeded reports an exhausted quota or rate limit.
func NewQuotaExceeded(retryDelay string, links []Link, err error) *EditError {
	msg := "You have exceeded your current quota. Please check your plan and billing details."
	if retryDelay != "" {
		msg += fmt.Sprintf(" Please try again in %s.", retryDelay)
	}
	if len(links) == 0 {
		links = []Link{LinkQuotaDocs}
	}
	return &EditError{
		Kind:       KindQuotaExceeded,
		Message:    msg,
		RetryDelay: retryDelay,
		Links:      links,
		Err:        err,
	}
}

// NewInvalidCredential reports a credential the API refused.
func NewInvalidCredential(err error) *EditError {
	return &EditError{
		Kind:    KindInvalidCredential,
		Message: "The API key appears to be invalid, or you are not allowed to use it. Please choose another one.",
		Err:     err,
	}
}

// NewRemote wraps any other API error with its code and message.
func NewRemote(code int, message string, err error) *EditError {
	return &EditError{
		Kind:    KindRemote,
		Message: fmt.Sprintf("API error (%d): %s", code, strings.TrimSpace(message)),
		Err:     err,
	}
}

// NewUnknown wraps an error nothing more specific could be said about.
func NewUnknown(err error) *EditError {
	msg := "Image generation failed because of an unknown error."
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		msg = strings.TrimSpace(err.Error())
	}
	return &EditError{Kind: KindUnknown, Message: msg, Err: err}
}
