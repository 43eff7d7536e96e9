package syncer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
)

// Phase is the stage a provider sync has reached.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseFetchingCredentials Phase = "fetching_credentials"
	PhaseFetchingRemote      Phase = "fetching_remote"
	PhaseNormalizing         Phase = "normalizing"
	PhaseReconciling         Phase = "reconciling"
	PhaseDone                Phase = "done"
	PhasePartiallyFailed     Phase = "partially_failed"
)

// ProviderResult is the outcome of syncing one provider.
type ProviderResult struct {
	Provider  models.Provider `json:"provider"`
	Pipelines int             `json:"pipelines"`
	Builds    int             `json:"builds"`
	// Changed counts pipelines whose cached record differs after the sync.
	Changed     int           `json:"changed"`
	Deactivated int64         `json:"deactivated"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	Err         error         `json:"-"`
}

// OK reports whether the provider synced.
func (r ProviderResult) OK() bool {
	return r.Err == nil && r.Error == ""
}

// Result aggregates the provider results of one sync run.
type Result struct {
	Providers []ProviderResult `json:"providers"`
}

// OK reports whether every attempted provider synced.
func (r Result) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the providers that did not sync.
func (r Result) Failed() []ProviderResult {
	var failed []ProviderResult
	for _, pr := range r.Providers {
		if !pr.OK() {
			failed = append(failed, pr)
		}
	}
	return failed
}

// Summary renders a one line description such as
// "2/3 providers synced; failed: JENKINS (JENKINS: no active credential)".
func (r Result) Summary() string {
	failed := r.Failed()
	summary := fmt.Sprintf("%d/%d providers synced", len(r.Providers)-len(failed), len(r.Providers))
	if len(failed) == 0 {
		return summary
	}

	reasons := make([]string, 0, len(failed))
	for _, pr := range failed {
		reasons = append(reasons, fmt.Sprintf("%s (%s)", pr.Provider, pr.Error))
	}
	return summary + "; failed: " + strings.Join(reasons, ", ")
}

// Err joins the provider failures, or returns nil when the run succeeded.
func (r Result) Err() error {
	var errs []error
	for _, pr := range r.Failed() {
		if pr.Err == nil {
			// decoded from JSON
			errs = append(errs, errors.New(pr.Error))
			continue
		}
		errs = append(errs, pr.Err)
	}
	return errors.Join(errs...)
}
