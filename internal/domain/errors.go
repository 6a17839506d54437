package domain

import "errors"

var (
	// ErrUnauthenticated means a request was rejected with 401 while no
	// local session exists. No refresh is attempted for anonymous traffic.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the refresh token itself was rejected or the
	// inactivity grace period elapsed. All session state is cleared and the
	// caller is sent back to the login surface.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoSession is returned by the session repository when no durable
	// session record exists.
	ErrNoSession = errors.New("no stored session")

	// ErrStaleRefresh marks a refresh that completed after logout already
	// cleared the session; its result must be discarded.
	ErrStaleRefresh = errors.New("stale refresh result")

	ErrChatNotFound = errors.New("chat not found")
	ErrNoOpenChat   = errors.New("no open conversation")
)
