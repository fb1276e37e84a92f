// Package auth decides whether the caller behind an Authorization header may perform an action
// on a resource class.
package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Authorizer is the per-request authorization check.
type Authorizer interface {
	// Authorize reports whether the credential in header grants action on resourceClass.
	// A missing or malformed header yields false without an error.
	// A non-nil error means the check itself could not be performed.
	Authorize(ctx context.Context, header, resourceClass, action string) (bool, error)
}

// PermissionChecker evaluates the permission predicate against the store.
type PermissionChecker interface {
	HasPermission(ctx context.Context, subject, secret, resourceClass, action string) (bool, error)
}

// Gate implements Authorizer on top of a PermissionChecker.
type Gate struct {
	checker PermissionChecker
	scheme  string
	logger  *slog.Logger
}

// NewGate creates a Gate accepting credentials of the given scheme, e.g. "Basic".
func NewGate(checker PermissionChecker, scheme string, logger *slog.Logger) *Gate {
	return &Gate{
		checker: checker,
		scheme:  scheme,
		logger:  logger.With("component", "auth"),
	}
}

func (g *Gate) Authorize(ctx context.Context, header, resourceClass, action string) (bool, error) {
	if header == "" {
		return false, nil
	}

	cred, err := ParseCredential(header, g.scheme)
	if err != nil {
		g.logger.DebugContext(ctx, "rejecting credential", "error", err, "class", resourceClass, "action", action)
		return false, nil
	}

	allowed, err := g.checker.HasPermission(ctx, cred.Subject, cred.Secret, resourceClass, action)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return allowed, nil
}

// DecisionObserver receives the outcome of every authorization check.
type DecisionObserver interface {
	ObserveAuthDecision(resourceClass string, allowed bool, err error)
}

type observedAuthorizer struct {
	next     Authorizer
	observer DecisionObserver
}

// WithObserver wraps next so that each decision is reported to observer.
// A nil observer returns next unchanged.
func WithObserver(next Authorizer, observer DecisionObserver) Authorizer {
	if observer == nil {
		return next
	}
	return &observedAuthorizer{next: next, observer: observer}
}

func (a *observedAuthorizer) Authorize(ctx context.Context, header, resourceClass, action string) (bool, error) {
	allowed, err := a.next.Authorize(ctx, header, resourceClass, action)
	a.observer.ObserveAuthDecision(resourceClass, allowed, err)
	return allowed, err
}
