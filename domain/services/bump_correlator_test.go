package services

import (
	"context"
	"errors"
	"testing"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const disboardID = "302050872383242240"

func newTestCorrelator(t *testing.T, platform *testhelpers.MockChatPlatform) *BumpCorrelator {
	t.Helper()
	c, err := NewBumpCorrelator(platform, CorrelatorConfig{
		ChannelID:  testBumpChannel,
		ServiceIDs: []string{disboardID, "716390085896962058"},
		Patterns: []string{
			"bump done|bumped|bump successful",
			"server bumped",
			"bump complete",
			"successfully bumped",
		},
	})
	require.NoError(t, err)
	return c
}

func TestNewBumpCorrelator_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewBumpCorrelator(nil, CorrelatorConfig{Patterns: []string{"bump("}})
	assert.Error(t, err)
}

func TestBumpCorrelator_IsConfirmation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  entities.ChatMessage
		want bool
	}{
		{
			name: "content match",
			msg:  entities.ChatMessage{ChannelID: testBumpChannel, AuthorID: disboardID, Content: "Bump done! :thumbsup:"},
			want: true,
		},
		{
			name: "embed description match",
			msg: entities.ChatMessage{
				ChannelID: testBumpChannel,
				AuthorID:  disboardID,
				Embeds:    []entities.EmbedText{{Title: "DISBOARD: The Public Server List", Description: "Bump done! Check it out on DISBOARD."}},
			},
			want: true,
		},
		{
			name: "embed title match is case insensitive",
			msg: entities.ChatMessage{
				ChannelID: testBumpChannel,
				AuthorID:  "716390085896962058",
				Embeds:    []entities.EmbedText{{Title: "SERVER BUMPED"}},
			},
			want: true,
		},
		{
			name: "loose phrase match on bumped",
			msg:  entities.ChatMessage{ChannelID: testBumpChannel, AuthorID: disboardID, Content: "Please wait another 2 hours until the server can be bumped"},
			want: true,
		},
		{
			name: "known service cooldown notice",
			msg:  entities.ChatMessage{ChannelID: testBumpChannel, AuthorID: disboardID, Content: "Please wait another 57 minutes"},
			want: false,
		},
		{
			name: "unknown bot",
			msg:  entities.ChatMessage{ChannelID: testBumpChannel, AuthorID: "999", AuthorBot: true, Content: "Bump done!"},
			want: false,
		},
		{
			name: "other channel",
			msg:  entities.ChatMessage{ChannelID: "general", AuthorID: disboardID, Content: "Bump done!"},
			want: false,
		},
		{
			name: "empty message",
			msg:  entities.ChatMessage{ChannelID: testBumpChannel, AuthorID: disboardID},
			want: false,
		},
	}

	c := newTestCorrelator(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.IsConfirmation(tt.msg))
		})
	}
}

func TestBumpCorrelator_Correlate(t *testing.T) {
	t.Parallel()

	steve := entities.Member{ID: "u1", Tag: "steve"}
	alex := entities.Member{ID: "u2", Tag: "alex"}
	confirmation := entities.ChatMessage{ID: "m-confirm", ChannelID: testBumpChannel, AuthorID: disboardID, Content: "Bump done!"}

	tests := []struct {
		name       string
		history    []entities.ChatMessage
		historyErr error
		wantMember entities.Member
		wantFound  bool
		wantErr    bool
	}{
		{
			name: "invocation in window",
			history: []entities.ChatMessage{
				confirmation,
				{ID: "m2", Content: "hello"},
				{ID: "m3", Invocation: &entities.InvocationRecord{CommandName: "bump", User: steve}},
			},
			wantMember: steve,
			wantFound:  true,
		},
		{
			name: "first invocation in provider order wins",
			history: []entities.ChatMessage{
				{ID: "m1", Invocation: &entities.InvocationRecord{CommandName: "bump", User: alex}},
				{ID: "m2", Invocation: &entities.InvocationRecord{CommandName: "bump", User: steve}},
			},
			wantMember: alex,
			wantFound:  true,
		},
		{
			name: "other commands are skipped",
			history: []entities.ChatMessage{
				{ID: "m1", Invocation: &entities.InvocationRecord{CommandName: "rank", User: alex}},
				{ID: "m2", Invocation: &entities.InvocationRecord{CommandName: "BUMP", User: steve}},
			},
			wantMember: steve,
			wantFound:  true,
		},
		{
			name:      "no invocation is a miss",
			history:   []entities.ChatMessage{confirmation, {ID: "m2", Content: "!d bump"}},
			wantFound: false,
		},
		{
			name:       "history failure",
			historyErr: errors.New("missing access"),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			platform := new(testhelpers.MockChatPlatform)
			platform.On("RecentMessages", mock.Anything, testBumpChannel, DefaultCorrelationWindow).Return(tt.history, tt.historyErr)
			c := newTestCorrelator(t, platform)

			member, found, err := c.Correlate(context.Background(), confirmation)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domainerrors.IsPlatform(err))
				assert.False(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantMember, member)
		})
	}
}
