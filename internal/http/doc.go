// Package http exposes the editorial workflow over JSON/HTTP.
//
// Routes are registered on a julienschmidt/httprouter router under an
// optional base path. Every route requires an HS256 bearer token:
//   - Content: POST /content, GET /content, GET /content/:id
//   - Workflow: POST /content/:id/transition, GET /content/:id/actions
//   - Audit: GET /content/:id/history
//   - Dashboard: GET /dashboard
//
// Errors are rendered as {"error": {"kind", "category", "message", ...}}.
package http
