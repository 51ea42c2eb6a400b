package service_test

import (
	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/Baaaki/freelance-market/internal/testutil"
	"github.com/google/uuid"
)

func proposalInput(projectID uuid.UUID) service.CreateProposalInput {
	return service.CreateProposalInput{
		ProjectID:    projectID,
		BidAmount:    750,
		DeliveryTime: 10,
		CoverLetter:  "I can start tomorrow.",
	}
}

func (s *ServiceTestSuite) TestCreateProposal_Rules() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	open := testutil.CreateProject(s.T(), s.db, client)
	running := testutil.CreateProject(s.T(), s.db, client, testutil.WithStatus(models.ProjectInProgress), testutil.WithFreelancer(alice))

	proposal, err := s.proposals.Create(s.ctx, testutil.ActorFor(alice), proposalInput(open.ID))
	s.Require().NoError(err)
	s.Equal(models.ProposalPending, proposal.Status)
	s.False(proposal.IsAccepted)

	event := s.notifier.Last()
	s.Equal(broker.EventProposalSubmitted, event.Type)
	s.True(event.IsFor(client.ID))

	_, err = s.proposals.Create(s.ctx, testutil.ActorFor(alice), proposalInput(open.ID))
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.proposals.Create(s.ctx, testutil.ActorFor(client), proposalInput(open.ID))
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.proposals.Create(s.ctx, testutil.ActorFor(alice), proposalInput(running.ID))
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.proposals.Create(s.ctx, testutil.ActorFor(alice), proposalInput(uuid.New()))
	s.requireKind(err, apperror.KindNotFound)
}

func (s *ServiceTestSuite) TestAccept_RejectsEverySibling() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	carol := s.user("carol", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	pa := testutil.CreateProposal(s.T(), s.db, project, alice)
	pb := testutil.CreateProposal(s.T(), s.db, project, bob)
	pc := testutil.CreateProposal(s.T(), s.db, project, carol)
	s.db.Model(pc).Update("status", models.ProposalWithdrawn)

	accepted, err := s.proposals.Accept(s.ctx, testutil.ActorFor(client), pa.ID, "Let's go")
	s.Require().NoError(err)
	s.Equal(models.ProposalAccepted, accepted.Status)
	s.True(accepted.IsAccepted)
	s.Equal("Let's go", accepted.ClientNote)

	reloaded := testutil.ReloadProject(s.T(), s.db, project.ID)
	s.Equal(models.ProjectInProgress, reloaded.Status)
	s.Require().NotNil(reloaded.AssignedFreelancerID)
	s.Equal(alice.ID, *reloaded.AssignedFreelancerID)

	for _, id := range []uuid.UUID{pb.ID, pc.ID} {
		p := testutil.ReloadProposal(s.T(), s.db, id)
		s.Equal(models.ProposalRejected, p.Status)
		s.Equal("Another proposal was accepted", p.ClientNote)
		s.False(p.IsAccepted)
	}

	s.Equal([]broker.EventType{
		broker.EventProposalAccepted,
		broker.EventProjectAssigned,
		broker.EventProposalRejected,
	}, s.notifier.Types())
	s.ElementsMatch([]uuid.UUID{bob.ID, carol.ID}, s.notifier.Last().Recipients)
}

func (s *ServiceTestSuite) TestAccept_Guards() {
	client := s.user("acme", models.RoleClient)
	other := s.user("globex", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	pa := testutil.CreateProposal(s.T(), s.db, project, alice)
	pb := testutil.CreateProposal(s.T(), s.db, project, bob)

	_, err := s.proposals.Accept(s.ctx, testutil.ActorFor(other), pa.ID, "")
	s.requireKind(err, apperror.KindForbidden)

	_, err = s.proposals.Accept(s.ctx, testutil.ActorFor(alice), pa.ID, "")
	s.requireKind(err, apperror.KindForbidden)

	_, err = s.proposals.Accept(s.ctx, testutil.ActorFor(client), uuid.New(), "")
	s.requireKind(err, apperror.KindNotFound)

	_, err = s.proposals.Accept(s.ctx, testutil.ActorFor(client), pa.ID, "")
	s.Require().NoError(err)

	// The project is no longer open
	_, err = s.proposals.Accept(s.ctx, testutil.ActorFor(client), pb.ID, "")
	s.requireKind(err, apperror.KindBadRequest)

	reloaded := testutil.ReloadProject(s.T(), s.db, project.ID)
	s.Equal(alice.ID, *reloaded.AssignedFreelancerID)
}

func (s *ServiceTestSuite) TestReject() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	proposal := testutil.CreateProposal(s.T(), s.db, project, alice)

	_, err := s.proposals.Reject(s.ctx, testutil.ActorFor(alice), proposal.ID, "")
	s.requireKind(err, apperror.KindForbidden)

	rejected, err := s.proposals.Reject(s.ctx, testutil.ActorFor(client), proposal.ID, "Over budget")
	s.Require().NoError(err)
	s.Equal(models.ProposalRejected, rejected.Status)
	s.Equal("Over budget", rejected.ClientNote)
	s.True(s.notifier.Last().IsFor(alice.ID))

	_, err = s.proposals.Reject(s.ctx, testutil.ActorFor(client), proposal.ID, "")
	s.requireKind(err, apperror.KindBadRequest)

	s.Equal(models.ProjectOpen, testutil.ReloadProject(s.T(), s.db, project.ID).Status)
}

func (s *ServiceTestSuite) TestWithdraw() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	pa := testutil.CreateProposal(s.T(), s.db, project, alice)
	pb := testutil.CreateProposal(s.T(), s.db, project, bob)

	_, err := s.proposals.Withdraw(s.ctx, testutil.ActorFor(bob), pa.ID)
	s.requireKind(err, apperror.KindForbidden)

	withdrawn, err := s.proposals.Withdraw(s.ctx, testutil.ActorFor(alice), pa.ID)
	s.Require().NoError(err)
	s.Equal(models.ProposalWithdrawn, withdrawn.Status)
	s.Equal(broker.EventProposalWithdrawn, s.notifier.Last().Type)

	_, err = s.proposals.Withdraw(s.ctx, testutil.ActorFor(alice), pa.ID)
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.proposals.Accept(s.ctx, testutil.ActorFor(client), pb.ID, "")
	s.Require().NoError(err)

	_, err = s.proposals.Withdraw(s.ctx, testutil.ActorFor(bob), pb.ID)
	s.requireKind(err, apperror.KindBadRequest)
	s.Contains(err.Error(), "Accepted proposals cannot be withdrawn")
}

func (s *ServiceTestSuite) TestUpdateProposal() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	proposal := testutil.CreateProposal(s.T(), s.db, project, alice)

	_, err := s.proposals.Update(s.ctx, testutil.ActorFor(alice), proposal.ID, service.UpdateProposalInput{
		Status: testutil.Ptr(string(models.ProposalAccepted)),
	})
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.proposals.Update(s.ctx, testutil.ActorFor(bob), proposal.ID, service.UpdateProposalInput{
		BidAmount: testutil.Ptr(10.0),
	})
	s.requireKind(err, apperror.KindForbidden)

	updated, err := s.proposals.Update(s.ctx, testutil.ActorFor(alice), proposal.ID, service.UpdateProposalInput{
		BidAmount:    testutil.Ptr(700.0),
		DeliveryTime: testutil.Ptr(7),
	})
	s.Require().NoError(err)
	s.Equal(700.0, updated.BidAmount)
	s.Equal(7, updated.DeliveryTime)
	s.Equal(models.ProposalPending, updated.Status)
}

func (s *ServiceTestSuite) TestListProposals() {
	client := s.user("acme", models.RoleClient)
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.db, client)
	testutil.CreateProposal(s.T(), s.db, project, alice)
	testutil.CreateProposal(s.T(), s.db, project, bob)

	list, err := s.proposals.ListForProject(s.ctx, testutil.ActorFor(client), project.ID)
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = s.proposals.ListForProject(s.ctx, testutil.ActorFor(alice), project.ID)
	s.requireKind(err, apperror.KindForbidden)

	mine, err := s.proposals.ListMine(s.ctx, testutil.ActorFor(alice))
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Require().NotNil(mine[0].Project)
	s.Equal(project.ID, mine[0].Project.ID)

	_, err = s.proposals.ListMine(s.ctx, testutil.ActorFor(client))
	s.requireKind(err, apperror.KindForbidden)
}
