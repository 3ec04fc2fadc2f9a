package services

import (
	"context"
	"strings"
	"time"

	"project-tracker/internal/database"
	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"github.com/stretchr/testify/suite"
)

// storeSuite gives every test a fresh in-memory database.
type storeSuite struct {
	suite.Suite
	ctx   context.Context
	pool  *database.DatabasePool
	repos *repositories.Repositories
}

func (s *storeSuite) SetupTest() {
	pool, err := database.OpenInMemory()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.pool = pool
	s.repos = repositories.New(pool.DB)
}

func (s *storeSuite) TearDownTest() {
	s.NoError(s.pool.Close())
}

func (s *storeSuite) createUser(name string) *models.User {
	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "not-a-real-hash",
	}
	s.Require().NoError(s.repos.Users.Create(s.ctx, user))
	return user
}

func (s *storeSuite) createProject(owner *models.User, title string, updatedAt time.Time) *models.Project {
	project := &models.Project{
		Title:     title,
		Content:   title + " content",
		OwnerID:   owner.ID,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	s.Require().NoError(s.repos.Projects.Create(s.ctx, project))
	return project
}

func (s *storeSuite) attach(project *models.Project, user *models.User) {
	_, err := s.repos.Memberships.Insert(s.ctx, project.ID, user.ID)
	s.Require().NoError(err)
}
