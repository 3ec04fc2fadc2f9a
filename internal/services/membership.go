package services

import (
	"context"
	"errors"
	"fmt"

	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"github.com/gofrs/uuid"
)

type MemberListing struct {
	Candidates []models.UserSummary `json:"candidates"`
	Attached   []models.UserSummary `json:"attached"`
}

type AttachResult struct {
	User    models.UserSummary `json:"user"`
	Message string             `json:"message"`
	Created bool               `json:"created"`
}

type MembershipService interface {
	ListCandidates(ctx context.Context, requesterID, projectID uuid.UUID) (*MemberListing, error)
	Attach(ctx context.Context, requesterID, projectID, targetID uuid.UUID) (*AttachResult, error)
}

type MembershipServiceImpl struct {
	repos *repositories.Repositories
}

func NewMembershipService(repos *repositories.Repositories) *MembershipServiceImpl {
	return &MembershipServiceImpl{repos: repos}
}

func (s *MembershipServiceImpl) loadAccessible(ctx context.Context, requesterID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	if !HasAccess(requesterID, project) {
		return nil, ErrAccessDenied
	}
	return project, nil
}

// ListCandidates returns the users that could still be attached: everyone
// except current members and the owner.
func (s *MembershipServiceImpl) ListCandidates(ctx context.Context, requesterID, projectID uuid.UUID) (*MemberListing, error) {
	project, err := s.loadAccessible(ctx, requesterID, projectID)
	if err != nil {
		return nil, err
	}

	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	members, err := s.repos.Memberships.ListMembers(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	attached := make(map[uuid.UUID]struct{}, len(members))
	listing := &MemberListing{
		Candidates: make([]models.UserSummary, 0, len(users)),
		Attached:   make([]models.UserSummary, 0, len(members)),
	}
	for i := range members {
		attached[members[i].ID] = struct{}{}
		listing.Attached = append(listing.Attached, members[i].Summary())
	}
	for i := range users {
		if users[i].ID == project.OwnerID {
			continue
		}
		if _, ok := attached[users[i].ID]; ok {
			continue
		}
		listing.Candidates = append(listing.Candidates, users[i].Summary())
	}
	return listing, nil
}

// Attach adds targetID to the project. Attaching someone who is already a
// member succeeds without creating a second row.
func (s *MembershipServiceImpl) Attach(ctx context.Context, requesterID, projectID, targetID uuid.UUID) (*AttachResult, error) {
	project, err := s.loadAccessible(ctx, requesterID, projectID)
	if err != nil {
		return nil, err
	}

	if targetID == uuid.Nil {
		return nil, fieldError("user_id", "The user_id field is required.")
	}
	target, err := s.repos.Users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, fieldError("user_id", "The selected user_id is invalid.")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if target.ID == project.OwnerID {
		return nil, fieldError("user_id", "The project owner cannot be added as a member.")
	}

	created, err := s.repos.Memberships.Insert(ctx, project.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("attach user: %w", err)
	}

	return &AttachResult{
		User:    target.Summary(),
		Message: fmt.Sprintf("%s is added to the project", target.Name),
		Created: created,
	}, nil
}
