package service

import (
	"context"
	"time"

	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectService struct {
	trace    *telemetry.Trace
	projects ProjectStore
	billing  *BillingService
}

func NewProjectService(trace *telemetry.Trace, projects ProjectStore, billing *BillingService) *ProjectService {
	return &ProjectService{trace: trace, projects: projects, billing: billing}
}

// Create 建立專案，數量受方案 projects 上限限制（0 代表不限）
func (s *ProjectService) Create(ctx context.Context, req *dto.CreateProjectDto) (_ *dto.ProjectResponseDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	features, err := s.billing.GetActivePlanFeatures(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	if features.Projects > 0 {
		count, err := s.projects.CountByOrg(ctx, req.OrgID)
		if err != nil {
			return nil, cErr.DatabaseError("mongodb count projects failed")
		}
		if count >= features.Projects {
			return nil, cErr.PlanLimitReached("project limit of the current plan has been reached")
		}
	}

	project, err := s.projects.Create(ctx, &model.Project{
		OrgID:     req.OrgID,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb create project failed")
	}
	return projectToDto(project), nil
}

func (s *ProjectService) Get(ctx context.Context, projectID primitive.ObjectID) (*dto.ProjectResponseDto, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get project failed")
	}
	if project == nil {
		return nil, cErr.NotFound("project not found")
	}
	return projectToDto(project), nil
}

func (s *ProjectService) ListByOrg(ctx context.Context, orgID string) ([]*dto.ProjectResponseDto, error) {
	projects, err := s.projects.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb list projects failed")
	}
	out := make([]*dto.ProjectResponseDto, 0, len(projects))
	for _, project := range projects {
		out = append(out, projectToDto(project))
	}
	return out, nil
}

func projectToDto(project *model.Project) *dto.ProjectResponseDto {
	return &dto.ProjectResponseDto{
		ID:        project.ID.Hex(),
		OrgID:     project.OrgID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
	}
}
