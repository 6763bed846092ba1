// Package adapters bridges bounded contexts without direct module
// dependencies. Each adapter exposes one consumer-defined port backed
// by another module's repository.
package adapters

import (
	"context"

	"crm_portal_backend/internal/leads/board"
	leadsvc "crm_portal_backend/internal/leads/service"
	pipelinerepo "crm_portal_backend/internal/pipelines/repository"

	"github.com/google/uuid"
)

// PipelineStageResolver implements the leads service's StageResolver
// port on top of the pipelines repository.
type PipelineStageResolver struct {
	pipelines pipelinerepo.PipelineReader
}

// NewPipelineStageResolver creates a stage resolver backed by the
// pipelines repository.
func NewPipelineStageResolver(pipelines pipelinerepo.PipelineReader) *PipelineStageResolver {
	return &PipelineStageResolver{pipelines: pipelines}
}

// ResolveStage looks up a stage and walks to its pipeline to find the
// owning tenant.
func (a *PipelineStageResolver) ResolveStage(ctx context.Context, stageID uuid.UUID) (leadsvc.StageRef, error) {
	stage, err := a.pipelines.GetStage(ctx, stageID)
	if err != nil {
		return leadsvc.StageRef{}, err
	}

	pipeline, err := a.pipelines.GetPipeline(ctx, stage.PipelineID)
	if err != nil {
		return leadsvc.StageRef{}, err
	}

	return leadsvc.StageRef{
		StageID:    stage.ID,
		PipelineID: pipeline.ID,
		TenantID:   pipeline.TenantID,
	}, nil
}

// PipelineMetaAdapter implements the board's PipelineMetaReader port on
// top of the pipelines repository.
type PipelineMetaAdapter struct {
	pipelines pipelinerepo.PipelineReader
}

// NewPipelineMetaAdapter creates a pipeline metadata reader backed by
// the pipelines repository.
func NewPipelineMetaAdapter(pipelines pipelinerepo.PipelineReader) *PipelineMetaAdapter {
	return &PipelineMetaAdapter{pipelines: pipelines}
}

// GetPipelineMeta loads a pipeline and its ordered stages for the board.
func (a *PipelineMetaAdapter) GetPipelineMeta(ctx context.Context, pipelineID uuid.UUID) (board.PipelineMeta, error) {
	pipeline, err := a.pipelines.GetPipeline(ctx, pipelineID)
	if err != nil {
		return board.PipelineMeta{}, err
	}

	stages, err := a.pipelines.ListStages(ctx, pipelineID)
	if err != nil {
		return board.PipelineMeta{}, err
	}

	meta := board.PipelineMeta{ID: pipeline.ID, Name: pipeline.Name}
	for _, st := range stages {
		meta.Stages = append(meta.Stages, board.StageMeta{
			ID:    st.ID,
			Name:  st.Name,
			Order: st.SortOrder,
		})
	}
	return meta, nil
}

var (
	_ leadsvc.StageResolver    = (*PipelineStageResolver)(nil)
	_ board.PipelineMetaReader = (*PipelineMetaAdapter)(nil)
)
