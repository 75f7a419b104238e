// Package api hosts the HTTP server, middleware, and REST handlers for operator
// access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/projects/{project_id}/preview builds a record without writing it.
//   - POST /v1/projects/{project_id}/sync builds and persists one project.
package api
