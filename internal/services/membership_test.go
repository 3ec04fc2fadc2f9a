package services

import (
	"sync"
	"testing"
	"time"

	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
)

type MembershipServiceSuite struct {
	storeSuite
	service *MembershipServiceImpl

	alice, bob, carol *models.User
	project           *models.Project
}

func (s *MembershipServiceSuite) SetupTest() {
	s.storeSuite.SetupTest()
	s.service = NewMembershipService(s.repos)

	s.alice = s.createUser("Alice")
	s.bob = s.createUser("Bob")
	s.carol = s.createUser("Carol")
	s.project = s.createProject(s.alice, "Roadmap", time.Now())
}

func TestMembershipServiceSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceSuite))
}

func summaryIDs(users []models.UserSummary) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func (s *MembershipServiceSuite) TestListCandidates_ExcludesOwnerAndMembers() {
	listing, err := s.service.ListCandidates(s.ctx, s.alice.ID, s.project.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]uuid.UUID{s.bob.ID, s.carol.ID}, summaryIDs(listing.Candidates))
	s.Empty(listing.Attached)

	s.attach(s.project, s.bob)

	listing, err = s.service.ListCandidates(s.ctx, s.alice.ID, s.project.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{s.carol.ID}, summaryIDs(listing.Candidates))
	s.Equal([]uuid.UUID{s.bob.ID}, summaryIDs(listing.Attached))
}

func (s *MembershipServiceSuite) TestListCandidates_OwnerExcludedByIdentity() {
	// Another user sharing the owner's name must still be offered.
	twin := &models.User{Name: "Alice", Email: "alice.twin@example.com", Password: "x"}
	s.Require().NoError(s.repos.Users.Create(s.ctx, twin))

	listing, err := s.service.ListCandidates(s.ctx, s.alice.ID, s.project.ID)
	s.Require().NoError(err)
	s.Contains(summaryIDs(listing.Candidates), twin.ID)
	s.NotContains(summaryIDs(listing.Candidates), s.alice.ID)
}

func (s *MembershipServiceSuite) TestListCandidates_Access() {
	_, err := s.service.ListCandidates(s.ctx, s.carol.ID, s.project.ID)
	s.ErrorIs(err, ErrAccessDenied)

	_, err = s.service.ListCandidates(s.ctx, s.alice.ID, uuid.Must(uuid.NewV4()))
	s.ErrorIs(err, ErrNotFound)

	s.attach(s.project, s.bob)
	_, err = s.service.ListCandidates(s.ctx, s.bob.ID, s.project.ID)
	s.NoError(err)
}

func (s *MembershipServiceSuite) TestAttach_IsIdempotent() {
	first, err := s.service.Attach(s.ctx, s.alice.ID, s.project.ID, s.bob.ID)
	s.Require().NoError(err)
	s.True(first.Created)
	s.Equal("Bob is added to the project", first.Message)

	second, err := s.service.Attach(s.ctx, s.alice.ID, s.project.ID, s.bob.ID)
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal("Bob is added to the project", second.Message)

	count, err := s.repos.Memberships.Count(s.ctx, s.project.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	listing, err := s.service.ListCandidates(s.ctx, s.alice.ID, s.project.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{s.bob.ID}, summaryIDs(listing.Attached))
	s.NotContains(summaryIDs(listing.Candidates), s.bob.ID)
	s.NotContains(summaryIDs(listing.Candidates), s.alice.ID)
}

func (s *MembershipServiceSuite) TestAttach_Concurrent() {
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Attach(s.ctx, s.alice.ID, s.project.ID, s.bob.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}
	count, err := s.repos.Memberships.Count(s.ctx, s.project.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *MembershipServiceSuite) TestAttach_UnknownUser() {
	_, err := s.service.Attach(s.ctx, s.alice.ID, s.project.ID, uuid.Must(uuid.NewV4()))

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "user_id")
}

func (s *MembershipServiceSuite) TestAttach_MissingUser() {
	_, err := s.service.Attach(s.ctx, s.alice.ID, s.project.ID, uuid.Nil)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("The user_id field is required.", verr.Fields["user_id"])
}

func (s *MembershipServiceSuite) TestAttach_OwnerRejected() {
	_, err := s.service.Attach(s.ctx, s.alice.ID, s.project.ID, s.alice.ID)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)

	count, err := s.repos.Memberships.Count(s.ctx, s.project.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *MembershipServiceSuite) TestAttach_StrangerDenied() {
	_, err := s.service.Attach(s.ctx, s.carol.ID, s.project.ID, s.carol.ID)
	s.ErrorIs(err, ErrAccessDenied)

	count, err := s.repos.Memberships.Count(s.ctx, s.project.ID, s.carol.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *MembershipServiceSuite) TestAttach_MemberCanInvite() {
	s.attach(s.project, s.bob)

	result, err := s.service.Attach(s.ctx, s.bob.ID, s.project.ID, s.carol.ID)
	s.Require().NoError(err)
	s.True(result.Created)
	s.Equal("Carol is added to the project", result.Message)
}
