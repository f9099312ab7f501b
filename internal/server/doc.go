// Package server exposes the compiler over HTTP.
//
// Routes:
//
//	POST /v1/compile   {"tree": <rule tree>, "strict": false}
//	GET  /v1/health
//	GET  /metrics      Prometheus exposition
//
// A compile answers {"query": ..., "warnings": [...], "hash": "..."}; an
// absent query is null. With "strict": true a compile that produced
// warnings answers 422 instead.
package server
