// Package verify probes a deployed SCIM bridge over HTTP.
//
// A freshly provisioned bridge serves a human-readable status page at its
// root URL and the SCIM protocol under /scim. Both are probed concurrently:
// the root page shows the service is up at all, and the Users collection
// shows whether the bearer token is accepted.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/bridgectl/bridgectl/internal/constants"
	"github.com/bridgectl/bridgectl/internal/logger"
)

// Report holds the status codes observed while probing a bridge.
type Report struct {
	Endpoint   string
	RootStatus int // GET <endpoint>/
	SCIMStatus int // GET <endpoint>/scim/Users with the bearer token
}

// Ready reports whether the bridge answered both probes with 200, meaning
// it is serving SCIM and accepted the bearer token.
func (r *Report) Ready() bool {
	return r.RootStatus == http.StatusOK && r.SCIMStatus == http.StatusOK
}

// Unauthorized reports whether the bridge is up but rejected the bearer
// token on the SCIM probe.
func (r *Report) Unauthorized() bool {
	return r.SCIMStatus == http.StatusUnauthorized || r.SCIMStatus == http.StatusForbidden
}

// Verifier checks that a deployed bridge endpoint is reachable and serving.
type Verifier struct {
	logger *slog.Logger
}

// New creates a Verifier.
func New(log *slog.Logger) *Verifier {
	return &Verifier{logger: log}
}

// Check probes the bridge root page and the SCIM Users collection
// concurrently and returns the observed status codes. A transport-level
// failure on either probe means the bridge is unreachable and is reported
// as an error; HTTP-level rejections land in the Report instead.
func (v *Verifier) Check(ctx context.Context, endpoint, token string) (*Report, error) {
	scimURL, err := url.JoinPath(endpoint, constants.SCIMUsersPath)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge endpoint: %w", err)
	}

	report := &Report{Endpoint: endpoint}

	// Each goroutine writes a distinct field; g.Wait is the sync point.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, probeErr := v.probe(gctx, endpoint, "")
		if probeErr != nil {
			return probeErr
		}
		report.RootStatus = status
		return nil
	})
	g.Go(func() error {
		status, probeErr := v.probe(gctx, scimURL, token)
		if probeErr != nil {
			return probeErr
		}
		report.SCIMStatus = status
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		return nil, fmt.Errorf("bridge endpoint is unreachable: %w", waitErr)
	}

	return report, nil
}

func (v *Verifier) probe(ctx context.Context, probeURL, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set(constants.AuthorizationHeader, "Bearer "+token)
		req.Header.Set(constants.ContentTypeHeader, constants.SCIMContentType)
	}

	logArgs := []any{
		"operation", "HTTP.Request",
		"method", http.MethodGet,
		"url", probeURL,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	v.logger.Debug("calling external service", logArgs...)

	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	v.logger.Debug("received HTTP response",
		"status", resp.StatusCode,
		"url", probeURL)

	return resp.StatusCode, nil
}
