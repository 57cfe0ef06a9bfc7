package testhelpers

import (
	"context"
	"sync"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/interfaces"
	"bumpbot/events"

	"github.com/stretchr/testify/mock"
)

// MockIdentityStore is a mock implementation of IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByExternalID(ctx context.Context, discordID string) (*entities.MemberRecord, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemberRecord), args.Error(1)
}

func (m *MockIdentityStore) Create(ctx context.Context, discordID, discordTag, gameUsername string) (*entities.MemberRecord, error) {
	args := m.Called(ctx, discordID, discordTag, gameUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemberRecord), args.Error(1)
}

func (m *MockIdentityStore) Update(ctx context.Context, recordID int64, gameUsername string) (*entities.MemberRecord, error) {
	args := m.Called(ctx, recordID, gameUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemberRecord), args.Error(1)
}

// MockChatPlatform is a mock implementation of ChatPlatform
type MockChatPlatform struct {
	mock.Mock
}

func (m *MockChatPlatform) SendText(ctx context.Context, channelID, content string) (entities.MessageRef, error) {
	args := m.Called(ctx, channelID, content)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockChatPlatform) DeleteMessage(ctx context.Context, ref entities.MessageRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockChatPlatform) RecentMessages(ctx context.Context, channelID string, limit int) ([]entities.ChatMessage, error) {
	args := m.Called(ctx, channelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ChatMessage), args.Error(1)
}

func (m *MockChatPlatform) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatPlatform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) AnnounceReward(ctx context.Context, channelID string, announcement entities.RewardAnnouncement) (entities.MessageRef, error) {
	args := m.Called(ctx, channelID, announcement)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockNotifier) PromptForUsername(ctx context.Context, channelID string, member entities.Member) (entities.MessageRef, error) {
	args := m.Called(ctx, channelID, member)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockNotifier) SendRegistrationNotice(ctx context.Context, channelID string, notice entities.RegistrationNotice) (entities.MessageRef, error) {
	args := m.Called(ctx, channelID, notice)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockNotifier) SendRoleOffer(ctx context.Context, channelID string, offer entities.PendingOffer) (entities.MessageRef, error) {
	args := m.Called(ctx, channelID, offer)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockNotifier) ShowOfferOutcome(ctx context.Context, offer entities.PendingOffer, outcome entities.OfferOutcome) error {
	args := m.Called(ctx, offer, outcome)
	return args.Error(0)
}

// MockBumpLedger is a mock implementation of BumpLedger
type MockBumpLedger struct {
	mock.Mock
}

func (m *MockBumpLedger) ClaimBump(ctx context.Context, sourceID, channelID string) (bool, error) {
	args := m.Called(ctx, sourceID, channelID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBumpLedger) RecordReward(ctx context.Context, entry interfaces.RewardLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockBumpLedger) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockRewardSender is a mock implementation of RewardSender
type MockRewardSender struct {
	mock.Mock
}

func (m *MockRewardSender) Dispatch(ctx context.Context, member entities.Member, gameUsername, reason string) entities.RewardReport {
	args := m.Called(ctx, member, gameUsername, reason)
	return args.Get(0).(entities.RewardReport)
}

// MockRoleOfferer is a mock implementation of RoleOfferer
type MockRoleOfferer struct {
	mock.Mock
}

func (m *MockRoleOfferer) Offer(ctx context.Context, member entities.Member, guildID, channelID, gameUsername string) (entities.PendingOffer, error) {
	args := m.Called(ctx, member, guildID, channelID, gameUsername)
	return args.Get(0).(entities.PendingOffer), args.Error(1)
}

// RecordingPublisher keeps every emitted event for inspection
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Emit(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of everything emitted so far
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType returns the emitted events of one type
func (p *RecordingPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}
