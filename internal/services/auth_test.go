package services

import (
	"testing"
	"time"

	"project-tracker/internal/config"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceSuite struct {
	storeSuite
	service *AuthServiceImpl
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:      "test-secret",
		Issuer:         "project-tracker-test",
		AccessTokenTTL: time.Hour,
		BCryptCost:     bcrypt.MinCost,
	}
}

func (s *AuthServiceSuite) SetupTest() {
	s.storeSuite.SetupTest()
	s.service = NewAuthService(s.repos.Users, testAuthConfig())
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) TestRegisterAndLogin() {
	user, err := s.service.Register(s.ctx, RegisterInput{Name: "Alice", Email: " Alice@Example.com ", Password: "password123"})
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
	s.NotEqual("password123", user.Password)

	loggedIn, err := s.service.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)
	s.Equal(user.ID, loggedIn.ID)
}

func (s *AuthServiceSuite) TestRegister_DuplicateEmail() {
	_, err := s.service.Register(s.ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, RegisterInput{Name: "Other", Email: "alice@example.com", Password: "password123"})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("The email has already been taken.", verr.Fields["email"])
}

func (s *AuthServiceSuite) TestRegister_Validation() {
	_, err := s.service.Register(s.ctx, RegisterInput{Name: "", Email: "not-an-email", Password: "short"})

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "name")
	s.Contains(verr.Fields, "email")
	s.Contains(verr.Fields, "password")
}

func (s *AuthServiceSuite) TestLogin_WrongPassword() {
	_, err := s.service.Register(s.ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceSuite) TestTokenRoundTrip() {
	userID := uuid.Must(uuid.NewV4())

	token, expiresAt, err := s.service.GenerateToken(userID)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := s.service.ParseToken(token)
	s.Require().NoError(err)
	s.Equal(userID, parsed)
}

func (s *AuthServiceSuite) TestParseToken_Rejects() {
	userID := uuid.Must(uuid.NewV4())

	otherIssuer := testAuthConfig()
	otherIssuer.Issuer = "someone-else"
	foreign, _, err := NewAuthService(s.repos.Users, otherIssuer).GenerateToken(userID)
	s.Require().NoError(err)
	_, err = s.service.ParseToken(foreign)
	s.Error(err)

	otherSecret := testAuthConfig()
	otherSecret.JWTSecret = "another-secret"
	forged, _, err := NewAuthService(s.repos.Users, otherSecret).GenerateToken(userID)
	s.Require().NoError(err)
	_, err = s.service.ParseToken(forged)
	s.Error(err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    "project-tracker-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	s.Require().NoError(err)
	_, err = s.service.ParseToken(expiredToken)
	s.ErrorIs(err, jwt.ErrTokenExpired)

	_, err = s.service.ParseToken("garbage")
	s.Error(err)
}

func (s *AuthServiceSuite) TestCurrentUser() {
	user, err := s.service.Register(s.ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)

	current, err := s.service.CurrentUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Alice", current.Name)

	_, err = s.service.CurrentUser(s.ctx, uuid.Must(uuid.NewV4()))
	s.ErrorIs(err, ErrNotFound)
}
