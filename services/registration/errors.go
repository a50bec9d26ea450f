// Package registration drives the multi-step onboarding wizard and its
// username availability checks.
package registration

import "errors"

var (
	ErrStepInvalid     = errors.New("registration: current step is not complete")
	ErrPlatformLimit   = errors.New("registration: at most 5 platforms can be selected")
	ErrInvalidSlug     = errors.New("registration: invalid username")
	ErrSlugUnavailable = errors.New("registration: username is already taken")
	ErrSessionNotFound = errors.New("registration: session not found")
	ErrFlowComplete    = errors.New("registration: flow already completed")
	ErrNotSelected     = errors.New("registration: platform is not selected")
	ErrInvalidLink     = errors.New("registration: additional link needs a URL")
)
