package service

// ValidateTransition exposes the pharmacy transition rules for tests.
var ValidateTransition = validateTransition
