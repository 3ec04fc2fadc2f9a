package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"project-tracker/internal/cache"
	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
)

// MyProjectsKeyPattern matches every user's cached my-projects feed.
const MyProjectsKeyPattern = "projects:mine:*"

const (
	allProjectsKey   = "projects:all"
	defaultFeedTTL   = 5 * time.Minute
	myProjectsKeyFmt = "projects:mine:%s"
)

func myProjectsKey(userID uuid.UUID) string {
	return fmt.Sprintf(myProjectsKeyFmt, userID.String())
}

// CachedProjectService serves the project listings from cache. Reads that
// depend on the access rule always go to the database.
type CachedProjectService struct {
	ProjectService
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedProjectService(projectService ProjectService, c cache.Cache, ttl time.Duration) *CachedProjectService {
	if ttl <= 0 {
		ttl = defaultFeedTTL
	}
	return &CachedProjectService{
		ProjectService: projectService,
		cache:          c,
		ttl:            ttl,
	}
}

func (s *CachedProjectService) ListAll(ctx context.Context) ([]ProjectSummary, error) {
	var cached []ProjectSummary
	if err := s.cache.Get(allProjectsKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Project cache read failed for %s: %v", allProjectsKey, err)
	}

	projects, err := s.ProjectService.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.store(allProjectsKey, projects)
	return projects, nil
}

func (s *CachedProjectService) MyProjects(ctx context.Context, userID uuid.UUID) ([]ProjectView, error) {
	key := myProjectsKey(userID)

	var cached []ProjectView
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Project cache read failed for %s: %v", key, err)
	}

	views, err := s.ProjectService.MyProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store(key, views)
	return views, nil
}

func (s *CachedProjectService) Create(ctx context.Context, userID uuid.UUID, input ProjectInput) (*models.Project, error) {
	project, err := s.ProjectService.Create(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(allProjectsKey)
	s.invalidate(myProjectsKey(userID))
	return project, nil
}

// Update and Delete reach every member's feed, so all personal feeds are
// dropped.
func (s *CachedProjectService) Update(ctx context.Context, userID, projectID uuid.UUID, input ProjectInput) (*models.Project, error) {
	project, err := s.ProjectService.Update(ctx, userID, projectID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(allProjectsKey)
	s.invalidatePattern(MyProjectsKeyPattern)
	return project, nil
}

func (s *CachedProjectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	if err := s.ProjectService.Delete(ctx, userID, projectID); err != nil {
		return err
	}
	s.invalidate(allProjectsKey)
	s.invalidatePattern(MyProjectsKeyPattern)
	return nil
}

func (s *CachedProjectService) store(key string, value interface{}) {
	if err := s.cache.Set(key, value, s.ttl); err != nil {
		log.Printf("Project cache write failed for %s: %v", key, err)
	}
}

func (s *CachedProjectService) invalidate(key string) {
	if err := s.cache.Delete(key); err != nil {
		log.Printf("Project cache invalidation failed for %s: %v", key, err)
	}
}

func (s *CachedProjectService) invalidatePattern(pattern string) {
	if err := s.cache.DeletePattern(pattern); err != nil {
		log.Printf("Project cache invalidation failed for %s: %v", pattern, err)
	}
}

// CachedMembershipService drops the attached user's feed so the project
// shows up for them immediately.
type CachedMembershipService struct {
	MembershipService
	cache cache.Cache
}

func NewCachedMembershipService(membershipService MembershipService, c cache.Cache) *CachedMembershipService {
	return &CachedMembershipService{MembershipService: membershipService, cache: c}
}

func (s *CachedMembershipService) Attach(ctx context.Context, requesterID, projectID, targetID uuid.UUID) (*AttachResult, error) {
	result, err := s.MembershipService.Attach(ctx, requesterID, projectID, targetID)
	if err != nil {
		return nil, err
	}
	if result.Created {
		key := myProjectsKey(targetID)
		if err := s.cache.Delete(key); err != nil {
			log.Printf("Project cache invalidation failed for %s: %v", key, err)
		}
	}
	return result, nil
}
