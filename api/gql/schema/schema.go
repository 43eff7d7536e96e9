package schema

import (
	"errors"
	"time"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/graphql-go/graphql"
)

// New instantiates a read-only GraphQL schema over the
// pipeline cache.
func New(store *cache.Store) graphql.SchemaConfig {
	return graphql.SchemaConfig{
		Query: graphql.NewObject(
			graphql.ObjectConfig{
				Name:   "Query",
				Fields: fields(store),
			},
		),
	}
}

var buildType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Build",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"pipelineId":    &graphql.Field{Type: graphql.String},
		"buildNumber":   &graphql.Field{Type: graphql.String},
		"status":        &graphql.Field{Type: graphql.String},
		"branch":        &graphql.Field{Type: graphql.String},
		"commitSha":     &graphql.Field{Type: graphql.String},
		"commitMessage": &graphql.Field{Type: graphql.String},
		"commitAuthor":  &graphql.Field{Type: graphql.String},
		"startedAt":     &graphql.Field{Type: graphql.String},
		"finishedAt":    &graphql.Field{Type: graphql.String},
		"duration":      &graphql.Field{Type: graphql.Float},
		"canRestart":    &graphql.Field{Type: graphql.Boolean},
		"canCancel":     &graphql.Field{Type: graphql.Boolean},
		"webUrl":        &graphql.Field{Type: graphql.String},
		"createdAt":     &graphql.Field{Type: graphql.String},
	},
})

var targetType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Target",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"provider": &graphql.Field{Type: graphql.String},
		"locator":  &graphql.Field{Type: graphql.String},
		"branch":   &graphql.Field{Type: graphql.String},
		"include":  &graphql.Field{Type: graphql.String},
	},
})

var preferencesType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Preferences",
	Fields: graphql.Fields{
		"pollingInterval": &graphql.Field{Type: graphql.Int},
		"notifyOnSuccess": &graphql.Field{Type: graphql.Boolean},
		"notifyOnFailure": &graphql.Field{Type: graphql.Boolean},
		"notifyOnStart":   &graphql.Field{Type: graphql.Boolean},
	},
})

func pipelineType(store *cache.Store) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Pipeline",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":              &graphql.Field{Type: graphql.String},
			"provider":          &graphql.Field{Type: graphql.String},
			"repositoryUrl":     &graphql.Field{Type: graphql.String},
			"branch":            &graphql.Field{Type: graphql.String},
			"status":            &graphql.Field{Type: graphql.String},
			"isActive":          &graphql.Field{Type: graphql.Boolean},
			"lastRunId":         &graphql.Field{Type: graphql.String},
			"lastRunStatus":     &graphql.Field{Type: graphql.String},
			"lastRunDuration":   &graphql.Field{Type: graphql.Float},
			"lastRunTimestamp":  &graphql.Field{Type: graphql.String},
			"lastCommitMessage": &graphql.Field{Type: graphql.String},
			"lastCommitAuthor":  &graphql.Field{Type: graphql.String},
			"updatedAt":         &graphql.Field{Type: graphql.String},
			"builds": &graphql.Field{
				Type: graphql.NewList(buildType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					src, _ := p.Source.(map[string]interface{})
					id, _ := src["id"].(string)
					limit, _ := p.Args["limit"].(int)

					builds, err := store.ListBuilds(p.Context, id, limit)
					if err != nil {
						return nil, err
					}
					return buildValues(builds), nil
				},
			},
		},
	})
}

func fields(store *cache.Store) graphql.Fields {
	pipeline := pipelineType(store)

	return graphql.Fields{
		"pipelines": &graphql.Field{
			Type: graphql.NewList(pipeline),
			Args: graphql.FieldConfigArgument{
				"provider": &graphql.ArgumentConfig{Type: graphql.String},
				"limit":    &graphql.ArgumentConfig{Type: graphql.Int},
				"offset":   &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				req := new(cache.ListRequest)
				if raw, ok := p.Args["provider"].(string); ok && raw != "" {
					prov, err := models.ParseProvider(raw)
					if err != nil {
						return nil, err
					}
					req.Provider = prov
				}
				req.Limit, _ = p.Args["limit"].(int)
				req.Offset, _ = p.Args["offset"].(int)

				pipelines, err := store.ListPipelines(p.Context, req)
				if err != nil {
					return nil, err
				}

				out := make([]interface{}, 0, len(pipelines))
				for _, pl := range pipelines {
					out = append(out, pipelineValue(pl))
				}
				return out, nil
			},
		},
		"pipeline": &graphql.Field{
			Type: pipeline,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, _ := p.Args["id"].(string)
				pl, err := store.GetPipeline(p.Context, id)
				if errors.Is(err, cache.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return pipelineValue(pl), nil
			},
		},
		"build": &graphql.Field{
			Type: buildType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, _ := p.Args["id"].(string)
				b, err := store.GetBuild(p.Context, id)
				if errors.Is(err, cache.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return buildValue(b), nil
			},
		},
		"targets": &graphql.Field{
			Type: graphql.NewList(targetType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				targets, err := store.ListTargets(p.Context, "")
				if err != nil {
					return nil, err
				}

				out := make([]interface{}, 0, len(targets))
				for _, t := range targets {
					out = append(out, map[string]interface{}{
						"id":       t.ID,
						"provider": string(t.Provider),
						"locator":  t.Locator,
						"branch":   t.Branch,
						"include":  t.Include,
					})
				}
				return out, nil
			},
		},
		"preferences": &graphql.Field{
			Type: preferencesType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				prefs, err := store.Preferences(p.Context)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"pollingInterval": prefs.PollingInterval,
					"notifyOnSuccess": prefs.NotifyOnSuccess,
					"notifyOnFailure": prefs.NotifyOnFailure,
					"notifyOnStart":   prefs.NotifyOnStart,
				}, nil
			},
		},
	}
}

func pipelineValue(p *models.Pipeline) map[string]interface{} {
	v := map[string]interface{}{
		"id":                p.ID,
		"name":              p.Name,
		"provider":          string(p.Provider),
		"repositoryUrl":     p.RepositoryURL,
		"branch":            p.Branch,
		"status":            string(p.Status),
		"isActive":          p.IsActive,
		"lastRunId":         p.LastRunID,
		"lastRunTimestamp":  timestamp(p.LastRunTimestamp),
		"lastCommitMessage": p.LastCommitMessage,
		"lastCommitAuthor":  p.LastCommitAuthor,
		"updatedAt":         p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.LastRunStatus != nil {
		v["lastRunStatus"] = string(*p.LastRunStatus)
	}
	if p.LastRunDuration != nil {
		v["lastRunDuration"] = float64(*p.LastRunDuration)
	}
	return v
}

func buildValues(builds models.Builds) []interface{} {
	out := make([]interface{}, 0, len(builds))
	for _, b := range builds {
		out = append(out, buildValue(b))
	}
	return out
}

func buildValue(b *models.Build) map[string]interface{} {
	v := map[string]interface{}{
		"id":            b.ID,
		"pipelineId":    b.PipelineID,
		"buildNumber":   b.BuildNumber,
		"status":        string(b.Status),
		"branch":        b.Branch,
		"commitSha":     b.CommitSHA,
		"commitMessage": b.CommitMessage,
		"commitAuthor":  b.CommitAuthor,
		"startedAt":     timestamp(b.StartedAt),
		"finishedAt":    timestamp(b.FinishedAt),
		"canRestart":    b.CanRestart,
		"canCancel":     b.CanCancel,
		"webUrl":        b.WebURL,
		"createdAt":     b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.Duration != nil {
		v["duration"] = float64(*b.Duration)
	}
	return v
}

// timestamp formats t, returning nil for unknown times.
func timestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
