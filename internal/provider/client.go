package provider

import (
	"context"

	"github.com/caesium-cloud/cimon/internal/models"
)

// Snapshot is the normalized remote state of one provider.
type Snapshot struct {
	Pipelines models.Pipelines
	// Builds are ordered as the provider returned them.
	Builds models.Builds
}

// TriggerOptions selects the ref and inputs of a new run. Providers
// without parameterized runs ignore Inputs.
type TriggerOptions struct {
	Branch string
	Inputs map[string]string
}

// Client is the set of capabilities the sync orchestrator and the action
// dispatcher need from a provider. Implementations are stateless and safe for
// concurrent use; every call receives the credential to use.
type Client interface {
	Provider() models.Provider
	FetchPipelines(ctx context.Context, cred *Credential, targets models.Targets) (*Snapshot, error)
	Trigger(ctx context.Context, cred *Credential, pipeline *models.Pipeline, opts TriggerOptions) (*models.Build, error)
	Retry(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error)
	Cancel(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error)
	Logs(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (string, error)
	CurrentUser(ctx context.Context, cred *Credential) (*models.User, error)
}
