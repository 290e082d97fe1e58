package constants

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	SessionIDKey ContextKey = "session_id"
	// 本次請求才發出的 session id
	SessionIssuedKey ContextKey = "session_issued"
)

const (
	RequestIDHeader   = "X-Request-ID"
	SessionIDHeader   = "X-Session-ID"
	CartOutcomeHeader = "X-Cart-Outcome"
	SessionCookieName = "cart_session"
)

// MaxSessionIDLength bounds client supplied session ids, they end up in redis keys.
const MaxSessionIDLength = 128
