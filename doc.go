// Package backend provides the Ambira API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/feed: Chunked feed assembly and cursor pagination
// - internal/streaks: Consecutive-day streak computation
// - internal/analytics: Per-user time and project statistics
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/email: Email service integration
// - internal/cache: Redis cache client and key layout
// - internal/middleware: HTTP middleware (rate limiting, metrics, etc.)
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
