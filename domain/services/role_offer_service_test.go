package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/testhelpers"
	"bumpbot/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testRoleID       = "role-1"
	testGuildID      = "guild-1"
	testBumpChannel  = "bump-channel"
	testOfferTimeout = 2 * time.Minute
	testCleanupDelay = 10 * time.Second
)

var testMember = entities.Member{ID: "u1", Tag: "steve"}

type offerFixture struct {
	platform  *testhelpers.MockChatPlatform
	notifier  *testhelpers.MockNotifier
	rewards   *testhelpers.MockRewardSender
	publisher *testhelpers.RecordingPublisher
	scheduler *testhelpers.FakeScheduler
	service   *RoleOfferService
}

func newOfferFixture() *offerFixture {
	f := &offerFixture{
		platform:  new(testhelpers.MockChatPlatform),
		notifier:  new(testhelpers.MockNotifier),
		rewards:   new(testhelpers.MockRewardSender),
		publisher: &testhelpers.RecordingPublisher{},
		scheduler: testhelpers.NewFakeScheduler(),
	}
	f.service = NewRoleOfferService(
		NewOfferRegistry(f.scheduler),
		f.platform,
		f.notifier,
		f.rewards,
		NewMessageJanitor(f.platform, f.scheduler),
		f.publisher,
		RoleOfferConfig{
			RoleID:       testRoleID,
			Timeout:      testOfferTimeout,
			CleanupDelay: testCleanupDelay,
		},
	)
	ids := 0
	f.service.newID = func() string {
		ids++
		return fmt.Sprintf("offer-%d", ids)
	}
	return f
}

func promptRef(id string) entities.MessageRef {
	return entities.MessageRef{ChannelID: testBumpChannel, MessageID: id}
}

func offerWithID(id string) interface{} {
	return mock.MatchedBy(func(o entities.PendingOffer) bool { return o.ID == id })
}

// openOffer posts an offer for testMember and returns it
func (f *offerFixture) openOffer(t *testing.T) entities.PendingOffer {
	t.Helper()
	f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil).Once()
	f.notifier.On("SendRoleOffer", mock.Anything, testBumpChannel, mock.AnythingOfType("entities.PendingOffer")).
		Return(promptRef("prompt-1"), nil).Once()

	offer, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Steve")
	require.NoError(t, err)
	require.Equal(t, "offer-1", offer.ID)
	require.Equal(t, promptRef("prompt-1"), offer.Prompt)
	return offer
}

func (f *offerFixture) expectOutcome(offerID string, outcome entities.OfferOutcome) {
	f.notifier.On("ShowOfferOutcome", mock.Anything, offerWithID(offerID), outcome).Return(nil).Once()
}

func (f *offerFixture) expectReward(reason string) {
	f.rewards.On("Dispatch", mock.Anything, testMember, "Steve", reason).Return(entities.RewardReport{}).Once()
}

func (f *offerFixture) assertPromptCleanup(t *testing.T) {
	t.Helper()
	f.platform.On("DeleteMessage", mock.Anything, promptRef("prompt-1")).Return(errors.New("unknown message")).Once()
	assert.Equal(t, 1, f.scheduler.FireDue(testCleanupDelay))
	f.platform.AssertCalled(t, "DeleteMessage", mock.Anything, promptRef("prompt-1"))
}

func (f *offerFixture) resolvedOutcomes() []string {
	var outcomes []string
	for _, e := range f.publisher.OfType(events.EventTypeRoleOfferResolved) {
		outcomes = append(outcomes, e.(events.RoleOfferResolvedEvent).Outcome)
	}
	return outcomes
}

func TestRoleOfferService_Offer(t *testing.T) {
	t.Parallel()

	t.Run("posts prompt and arms deadline", func(t *testing.T) {
		t.Parallel()
		f := newOfferFixture()
		offer := f.openOffer(t)

		assert.Equal(t, 1, f.service.PendingCount())
		assert.Equal(t, offer.CreatedAt.Add(testOfferTimeout), offer.ExpiresAt)
		deadlines := f.scheduler.WithDelay(testOfferTimeout)
		require.Len(t, deadlines, 1)
		assert.True(t, deadlines[0].Pending())
	})

	t.Run("member already has role", func(t *testing.T) {
		t.Parallel()
		f := newOfferFixture()
		f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(true, nil)

		_, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Steve")
		assert.ErrorIs(t, err, ErrAlreadyHasRole)
		assert.Equal(t, 0, f.service.PendingCount())
		f.notifier.AssertNotCalled(t, "SendRoleOffer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("role check failure", func(t *testing.T) {
		t.Parallel()
		f := newOfferFixture()
		f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, errors.New("unknown member"))

		_, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Steve")
		assert.Error(t, err)
		assert.Equal(t, 0, f.service.PendingCount())
	})

	t.Run("prompt send failure leaves no offer behind", func(t *testing.T) {
		t.Parallel()
		f := newOfferFixture()
		f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil)
		f.notifier.On("SendRoleOffer", mock.Anything, testBumpChannel, mock.Anything).
			Return(entities.MessageRef{}, errors.New("missing access"))

		_, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Steve")
		assert.Error(t, err)
		assert.Equal(t, 0, f.service.PendingCount())
		assert.True(t, f.scheduler.WithDelay(testOfferTimeout)[0].Stopped())
	})

	t.Run("second offer is rejected and refreshes username", func(t *testing.T) {
		t.Parallel()
		f := newOfferFixture()
		f.openOffer(t)
		f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil).Once()

		_, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Alex")
		assert.ErrorIs(t, err, ErrOfferPending)
		f.notifier.AssertNumberOfCalls(t, "SendRoleOffer", 1)

		live, ok := f.service.registry.Get(testMember.ID)
		require.True(t, ok)
		assert.Equal(t, "offer-1", live.ID)
		assert.Equal(t, "Alex", live.GameUsername)
	})
}

func TestRoleOfferService_Resolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		choice      entities.OfferChoice
		setupGrant  func(f *offerFixture)
		wantOutcome entities.OfferOutcome
		wantReward  bool
	}{
		{
			name:   "confirm grants role",
			choice: entities.OfferChoiceConfirm,
			setupGrant: func(f *offerFixture) {
				f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil).Once()
				f.platform.On("AddRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(nil).Once()
			},
			wantOutcome: entities.OfferConfirmed,
			wantReward:  true,
		},
		{
			name:   "confirm when role already present skips grant",
			choice: entities.OfferChoiceConfirm,
			setupGrant: func(f *offerFixture) {
				f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(true, nil).Once()
			},
			wantOutcome: entities.OfferConfirmed,
			wantReward:  true,
		},
		{
			name:   "confirm with failed grant skips reward",
			choice: entities.OfferChoiceConfirm,
			setupGrant: func(f *offerFixture) {
				f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil).Once()
				f.platform.On("AddRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(errors.New("missing permissions")).Once()
			},
			wantOutcome: entities.OfferGrantFailed,
			wantReward:  false,
		},
		{
			name:        "decline still rewards",
			choice:      entities.OfferChoiceDecline,
			setupGrant:  func(f *offerFixture) {},
			wantOutcome: entities.OfferDeclined,
			wantReward:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newOfferFixture()
			offer := f.openOffer(t)

			tt.setupGrant(f)
			f.expectOutcome(offer.ID, tt.wantOutcome)
			if tt.wantReward {
				f.expectReward("role_offer_" + string(tt.wantOutcome))
			}

			claimed, ok := f.service.Claim(testMember.ID, offer.ID)
			require.True(t, ok)
			assert.Equal(t, 0, f.service.PendingCount())
			assert.True(t, f.scheduler.WithDelay(testOfferTimeout)[0].Stopped())

			outcome := f.service.Complete(context.Background(), claimed, tt.choice)
			assert.Equal(t, tt.wantOutcome, outcome)

			if tt.wantReward {
				f.rewards.AssertNumberOfCalls(t, "Dispatch", 1)
			} else {
				f.rewards.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.name == "confirm when role already present skips grant" {
				f.platform.AssertNotCalled(t, "AddRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}

			f.assertPromptCleanup(t)
			assert.Equal(t, []string{string(tt.wantOutcome)}, f.resolvedOutcomes())
			f.notifier.AssertExpectations(t)
		})
	}
}

func TestRoleOfferService_Timeout(t *testing.T) {
	t.Parallel()

	f := newOfferFixture()
	offer := f.openOffer(t)
	f.expectOutcome(offer.ID, entities.OfferTimedOut)
	f.expectReward("role_offer_timed_out")

	assert.Equal(t, 1, f.scheduler.FireDue(testOfferTimeout))
	assert.Equal(t, 0, f.service.PendingCount())
	f.rewards.AssertNumberOfCalls(t, "Dispatch", 1)

	// confirm arriving after the deadline finds nothing
	_, ok := f.service.Claim(testMember.ID, offer.ID)
	assert.False(t, ok)
	f.rewards.AssertNumberOfCalls(t, "Dispatch", 1)
	f.platform.AssertNotCalled(t, "AddRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.assertPromptCleanup(t)
	assert.Equal(t, []string{string(entities.OfferTimedOut)}, f.resolvedOutcomes())
}

func TestRoleOfferService_DeadlineRacingConfirmIsNoop(t *testing.T) {
	t.Parallel()

	f := newOfferFixture()
	offer := f.openOffer(t)
	f.expectOutcome(offer.ID, entities.OfferDeclined)
	f.expectReward("role_offer_declined")

	claimed, ok := f.service.Claim(testMember.ID, offer.ID)
	require.True(t, ok)

	// the deadline was already firing when the click claimed the offer
	f.scheduler.WithDelay(testOfferTimeout)[0].ForceFire()

	f.service.Complete(context.Background(), claimed, entities.OfferChoiceDecline)
	f.rewards.AssertNumberOfCalls(t, "Dispatch", 1)
	f.notifier.AssertNumberOfCalls(t, "ShowOfferOutcome", 1)
}

func TestRoleOfferService_OutcomeEditFailureStillRewards(t *testing.T) {
	t.Parallel()

	f := newOfferFixture()
	offer := f.openOffer(t)
	f.notifier.On("ShowOfferOutcome", mock.Anything, offerWithID(offer.ID), entities.OfferDeclined).
		Return(errors.New("unknown message")).Once()
	f.expectReward("role_offer_declined")

	claimed, ok := f.service.Claim(testMember.ID, "")
	require.True(t, ok)
	assert.Equal(t, entities.OfferDeclined, f.service.Complete(context.Background(), claimed, entities.OfferChoiceDecline))
	f.rewards.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestRoleOfferService_Close(t *testing.T) {
	t.Parallel()

	f := newOfferFixture()
	f.openOffer(t)

	f.service.Close()
	assert.Equal(t, 0, f.service.PendingCount())
	assert.True(t, f.scheduler.WithDelay(testOfferTimeout)[0].Stopped())
	f.rewards.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.platform.On("HasRole", mock.Anything, testGuildID, testMember.ID, testRoleID).Return(false, nil).Once()
	_, err := f.service.Offer(context.Background(), testMember, testGuildID, testBumpChannel, "Steve")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}
