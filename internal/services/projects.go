package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"github.com/gofrs/uuid"
)

type ProjectInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
}

// ProjectView is one entry of a user's feed.
type ProjectView struct {
	models.Project
	Kind models.ProjectKind `json:"kind"`
}

type ProjectSummary struct {
	models.Project
	OwnerSummary models.UserSummary `json:"owner"`
}

type TaskView struct {
	models.Task
	AuthorSummary models.UserSummary `json:"author"`
}

// ProjectDetail is everything the project page shows.
type ProjectDetail struct {
	Project models.Project       `json:"project"`
	Owner   models.UserSummary   `json:"owner"`
	Members []models.UserSummary `json:"assigned_users"`
	Tasks   []TaskView           `json:"tasks"`
	IsOwner bool                 `json:"is_owner"`
}

type ProjectService interface {
	ListAll(ctx context.Context) ([]ProjectSummary, error)
	MyProjects(ctx context.Context, userID uuid.UUID) ([]ProjectView, error)
	Create(ctx context.Context, userID uuid.UUID, input ProjectInput) (*models.Project, error)
	View(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetail, error)
	Update(ctx context.Context, userID, projectID uuid.UUID, input ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, userID, projectID uuid.UUID) error
}

type ProjectServiceImpl struct {
	repos *repositories.Repositories
}

func NewProjectService(repos *repositories.Repositories) *ProjectServiceImpl {
	return &ProjectServiceImpl{repos: repos}
}

func (s *ProjectServiceImpl) ListAll(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := s.repos.Projects.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for i := range projects {
		summaries = append(summaries, ProjectSummary{
			Project:      projects[i],
			OwnerSummary: projects[i].Owner.Summary(),
		})
	}
	return summaries, nil
}

// MyProjects merges the projects a user owns with the ones they were attached
// to. Each group is read newest first, owned before assigned, and the
// combined list is then stable-sorted by last update.
func (s *ProjectServiceImpl) MyProjects(ctx context.Context, userID uuid.UUID) ([]ProjectView, error) {
	owned, err := s.repos.Projects.ListOwnedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned projects: %w", err)
	}
	assigned, err := s.repos.Projects.ListAssignedTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assigned projects: %w", err)
	}

	return mergeFeed(owned, assigned), nil
}

func mergeFeed(owned, assigned []models.Project) []ProjectView {
	views := make([]ProjectView, 0, len(owned)+len(assigned))
	for _, p := range owned {
		views = append(views, ProjectView{Project: p, Kind: models.KindOwned})
	}
	for _, p := range assigned {
		views = append(views, ProjectView{Project: p, Kind: models.KindAssigned})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})
	return views
}

func (s *ProjectServiceImpl) Create(ctx context.Context, userID uuid.UUID, input ProjectInput) (*models.Project, error) {
	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:   input.Title,
		Content: input.Content,
		OwnerID: userID,
	}
	if err := s.repos.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (s *ProjectServiceImpl) View(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetail, error) {
	project, err := s.repos.Projects.FindDetailed(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	if !HasAccess(userID, project) {
		return nil, ErrAccessDenied
	}

	detail := &ProjectDetail{
		Project: *project,
		Owner:   project.Owner.Summary(),
		Members: make([]models.UserSummary, 0, len(project.Memberships)),
		Tasks:   make([]TaskView, 0, len(project.Tasks)),
		IsOwner: IsOwner(userID, project),
	}
	for _, member := range project.Members() {
		detail.Members = append(detail.Members, member.Summary())
	}
	for _, task := range project.Tasks {
		detail.Tasks = append(detail.Tasks, TaskView{Task: task, AuthorSummary: task.Author.Summary()})
	}
	return detail, nil
}

// Update changes title and content. Only the owner may edit a project.
func (s *ProjectServiceImpl) Update(ctx context.Context, userID, projectID uuid.UUID, input ProjectInput) (*models.Project, error) {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	if !IsOwner(userID, project) {
		return nil, ErrAccessDenied
	}

	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	project.Title = input.Title
	project.Content = input.Content
	project.UpdatedAt = time.Now()

	err = s.repos.Projects.Update(ctx, project, map[string]interface{}{
		"title":      project.Title,
		"content":    project.Content,
		"updated_at": project.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete removes the project with its tasks and memberships. Owner only.
func (s *ProjectServiceImpl) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return notFound(err)
	}
	if !IsOwner(userID, project) {
		return ErrAccessDenied
	}

	if err := s.repos.Projects.Delete(ctx, project.ID); err != nil {
		return fmt.Errorf("delete project: %w", notFound(err))
	}
	return nil
}
