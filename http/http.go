// Package http exposes the owning process over HTTP: the ingestion
// endpoint called by the content-management hook, the capability listing
// and execution endpoints consumed by the MCP proxy, and the two-step
// payment handshake consumed by paying agents. It also hosts the HTTP
// clients for the external collaborators (pinning store, summarizer,
// chain explorer).
package http

import (
	"errors"
	"net/http"

	pagetoll "github.com/pagetoll/pagetoll"
)

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(err error) int {
	var pe *pagetoll.Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Kind {
	case pagetoll.KindValidation:
		return http.StatusBadRequest
	case pagetoll.KindNotFound, pagetoll.KindSessionNotFound, pagetoll.KindRegistryMiss:
		return http.StatusNotFound
	case pagetoll.KindVerificationFailed:
		return http.StatusPaymentRequired
	case pagetoll.KindUploadFailed, pagetoll.KindUpstreamUnavailable, pagetoll.KindVerificationUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
