package main

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginTimeout       = errors.New("login attempt timed out")
)

var (
	ErrDateNotFound  = errors.New("no date row found for the target date")
	ErrEventNotFound = errors.New("no event found")
	ErrEventFull     = errors.New("target event is full")
)

var (
	ErrRegistrationMissed = errors.New("register button did not appear")
	ErrCheckoutFailed     = errors.New("checkout did not reach confirmation")
)

var ErrBadTimeFormat = errors.New("invalid time format")
