package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/dependencies/mocks"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestIssueCreatesCredential() {
	s.random.QueueUUID("abc-123")

	cred, err := s.service.Issue(s.ctx, "room-1", "p1")
	s.Require().NoError(err)

	s.Equal("cred_abc-123", cred.Token)
	s.Equal(model.LobbyName("room-1"), cred.Lobby)
	s.Equal(model.PlayerID("p1"), cred.PlayerID)
	s.Equal(s.clock.Now(), cred.IssuedAt)
}

func (s *ServiceSuite) TestValidateAcceptsIssuedToken() {
	cred, err := s.service.Issue(s.ctx, "room-1", "p1")
	s.Require().NoError(err)

	got, err := s.service.Validate(s.ctx, cred.Token, "room-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.PlayerID)
}

func (s *ServiceSuite) TestValidateRejectsUnknownToken() {
	_, err := s.service.Validate(s.ctx, "cred_nope", "room-1")
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *ServiceSuite) TestValidateRejectsWrongLobby() {
	cred, err := s.service.Issue(s.ctx, "room-1", "p1")
	s.Require().NoError(err)

	_, err = s.service.Validate(s.ctx, cred.Token, "room-2")
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *ServiceSuite) TestRevoke() {
	cred, err := s.service.Issue(s.ctx, "room-1", "p1")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Revoke(s.ctx, cred.Token))

	_, err = s.service.Validate(s.ctx, cred.Token, "room-1")
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *ServiceSuite) TestRevokeLobbyDropsAllCredentials() {
	first, err := s.service.Issue(s.ctx, "room-1", "p1")
	s.Require().NoError(err)
	second, err := s.service.Issue(s.ctx, "room-1", "p2")
	s.Require().NoError(err)
	other, err := s.service.Issue(s.ctx, "room-2", "p3")
	s.Require().NoError(err)

	s.Require().NoError(s.service.RevokeLobby(s.ctx, "room-1"))

	_, err = s.service.Validate(s.ctx, first.Token, "room-1")
	s.ErrorIs(err, model.ErrInvalidCredential)
	_, err = s.service.Validate(s.ctx, second.Token, "room-1")
	s.ErrorIs(err, model.ErrInvalidCredential)
	_, err = s.service.Validate(s.ctx, other.Token, "room-2")
	s.NoError(err)
}
