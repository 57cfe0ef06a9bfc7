package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"bumpbot/bot/common"
	"bumpbot/bot/features/registration"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token            string
	GuildID          string
	BumpChannelID    string
	ConsoleChannelID string
	BumpRoleID       string
	StoreBackend     string
	HiddenUsers      int
}

// EventRouter receives every translated inbound event
type EventRouter interface {
	Route(ctx context.Context, event entities.InboundEvent)
}

// Bot owns the Discord session and feeds gateway events to the router
type Bot struct {
	config     Config
	session    *discordgo.Session
	translator translator
	router     EventRouter

	ctx      context.Context
	cancel   context.CancelFunc
	handlers sync.WaitGroup
	ready    atomic.Bool
}

// New creates the Discord session without connecting it, so the platform
// adapters can be wired into services before Start
func New(config Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		config:  config,
		session: dg,
		translator: translator{
			bumpChannelID: config.BumpChannelID,
			newReply:      newInteractionReply(dg),
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Platform returns the chat platform adapter backed by this session
func (b *Bot) Platform() *Platform {
	return NewPlatform(b.session)
}

// Notifier returns the embed renderer backed by this session
func (b *Bot) Notifier() *Notifier {
	return NewNotifier(b.session)
}

// Start registers handlers, opens the gateway connection and registers slash commands
func (b *Bot) Start(router EventRouter) error {
	b.router = router

	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleMessageCreate)
	b.session.AddHandler(b.handleInteractions)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	return nil
}

// Close stops accepting events, waits for in-flight handlers and closes the session
func (b *Bot) Close() error {
	b.cancel()
	b.handlers.Wait()
	b.ready.Store(false)
	return b.session.Close()
}

// Connected reports whether the gateway session is ready
func (b *Bot) Connected() bool {
	return b.ready.Load()
}

// GuildCount returns how many guilds the session currently sees
func (b *Bot) GuildCount() int {
	if b.session.State == nil {
		return 0
	}
	b.session.State.RLock()
	defer b.session.State.RUnlock()
	return len(b.session.State.Guilds)
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)

	log.WithFields(log.Fields{
		"user":            r.User.String(),
		"bump_channel":    b.config.BumpChannelID,
		"console_channel": b.config.ConsoleChannelID,
		"store_backend":   b.config.StoreBackend,
		"bump_role":       b.config.BumpRoleID,
		"hidden_users":    b.config.HiddenUsers,
	}).Info("Bot online")

	if err := s.UpdateWatchStatus(0, common.PresenceText); err != nil {
		log.WithError(err).Warn("Failed to set presence")
	}
}

func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	var selfID string
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	event, ok := b.translator.message(selfID, m.Message)
	if !ok {
		return
	}
	b.dispatch(event)
}

// handleInteractions routes slash commands, buttons and modals
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type == discordgo.InteractionMessageComponent &&
		i.MessageComponentData().CustomID == common.UsernameButtonCustomID {
		b.openUsernameModal(s, i)
		return
	}

	event, ok := b.translator.interaction(i.Interaction)
	if !ok {
		return
	}
	b.dispatch(event)
}

func (b *Bot) openUsernameModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: registration.BuildUsernameModal(),
	}, discordgo.WithContext(b.ctx))
	if err != nil {
		common.HandleError(b.ctx, s, i, common.NewSystemError(err, "Failed to open username modal"))
	}
}

// dispatch runs the router on the handler goroutine discordgo provides.
// Events arriving after Close are dropped.
func (b *Bot) dispatch(event entities.InboundEvent) {
	if b.ctx.Err() != nil || b.router == nil {
		return
	}
	b.handlers.Add(1)
	defer b.handlers.Done()

	b.router.Route(b.ctx, event)
}
