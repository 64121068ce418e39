// Package middleware provides HTTP middleware for the development agent
// server.
//
// Middleware stack:
//   - CORS: cross-origin access for browser front ends
//   - RateLimit: per-IP token bucket with idle client eviction
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
