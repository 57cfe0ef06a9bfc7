// Package application routes translated platform events to the domain services.
package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/interfaces"
	"bumpbot/domain/services"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultRegisterCommand = "minecraft"

	msgNoPendingOffer  = "❌ No pending assignment found."
	msgWrongChannel    = "❌ Bumps are only tracked in <#%s>."
	msgBumpCooldown    = "⏳ You already bumped recently. Try again later."
	msgBumpReceived    = "🎮 Bump received! Checking your rewards..."
	msgSubmissionLimit = "⏳ Slow down! Try again in a few seconds."
)

// Correlator recognizes bump confirmations and attributes them to a member
type Correlator interface {
	IsConfirmation(msg entities.ChatMessage) bool
	Correlate(ctx context.Context, msg entities.ChatMessage) (entities.Member, bool, error)
}

// BumpHandler runs the lookup-or-prompt workflow for an attributed bump
type BumpHandler interface {
	HandleBump(ctx context.Context, member entities.Member, source events.BumpSource, sourceID string) error
}

// Registrar handles username submissions
type Registrar interface {
	Submit(ctx context.Context, req services.RegistrationRequest)
	NotifyRateLimited(ctx context.Context, channelID string, member entities.Member)
}

// OfferResolver resolves live role offers
type OfferResolver interface {
	Claim(memberID, offerID string) (entities.PendingOffer, bool)
	Complete(ctx context.Context, offer entities.PendingOffer, choice entities.OfferChoice) entities.OfferOutcome
}

// MessageCleaner removes messages immediately, ignoring failures
type MessageCleaner interface {
	DeleteNow(ref entities.MessageRef)
}

type RouterConfig struct {
	BumpChannelID   string
	RegisterCommand string
}

// Router dispatches each inbound variant to its workflow. Every route catches
// its own failures so one bad event never affects another.
type Router struct {
	correlator     Correlator
	bumps          BumpHandler
	registrar      Registrar
	offers         OfferResolver
	cleaner        MessageCleaner
	ledger         interfaces.BumpLedger
	publisher      interfaces.EventPublisher
	commandLimiter *LimiterStore
	bumpCooldown   *LimiterStore
	config         RouterConfig
	now            func() time.Time
}

func NewRouter(
	correlator Correlator,
	bumps BumpHandler,
	registrar Registrar,
	offers OfferResolver,
	cleaner MessageCleaner,
	ledger interfaces.BumpLedger,
	publisher interfaces.EventPublisher,
	commandLimiter *LimiterStore,
	bumpCooldown *LimiterStore,
	config RouterConfig,
) *Router {
	if config.RegisterCommand == "" {
		config.RegisterCommand = DefaultRegisterCommand
	}
	return &Router{
		correlator:     correlator,
		bumps:          bumps,
		registrar:      registrar,
		offers:         offers,
		cleaner:        cleaner,
		ledger:         ledger,
		publisher:      publisher,
		commandLimiter: commandLimiter,
		bumpCooldown:   bumpCooldown,
		config:         config,
		now:            time.Now,
	}
}

// Route handles a single inbound event
func (r *Router) Route(ctx context.Context, event entities.InboundEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(log.Fields{
				"panic": rec,
				"event": fmt.Sprintf("%T", event),
				"stack": string(debug.Stack()),
			}).Error("Recovered panic while routing event")
		}
	}()

	switch ev := event.(type) {
	case entities.DirectInvocation:
		r.routeDirectInvocation(ctx, ev)
	case entities.ServiceConfirmation:
		r.routeServiceConfirmation(ctx, ev)
	case entities.UserCommand:
		r.routeUserCommand(ctx, ev)
	case entities.ButtonChoice:
		r.routeButtonChoice(ctx, ev)
	case entities.ModalSubmission:
		r.routeModalSubmission(ctx, ev)
	default:
		log.WithField("event", fmt.Sprintf("%T", event)).Warn("Unhandled inbound event")
	}
}

func (r *Router) routeDirectInvocation(ctx context.Context, ev entities.DirectInvocation) {
	if ev.ChannelID != r.config.BumpChannelID {
		r.reply(ctx, ev.Reply, fmt.Sprintf(msgWrongChannel, r.config.BumpChannelID))
		return
	}
	if !r.bumpCooldown.Allow(ev.User.ID) {
		r.reply(ctx, ev.Reply, msgBumpCooldown)
		return
	}
	r.reply(ctx, ev.Reply, msgBumpReceived)

	if !r.claim(ctx, ev.InteractionID, ev.ChannelID) {
		return
	}

	if err := r.bumps.HandleBump(ctx, ev.User, events.BumpSourceDirect, ev.InteractionID); err != nil {
		log.WithFields(log.Fields{
			"discordID": ev.User.ID,
			"error":     err,
		}).Error("Failed to handle direct bump")
	}
}

func (r *Router) routeServiceConfirmation(ctx context.Context, ev entities.ServiceConfirmation) {
	msg := ev.Message
	if !r.correlator.IsConfirmation(msg) {
		return
	}
	if !r.claim(ctx, msg.ID, msg.ChannelID) {
		return
	}

	member, found, err := r.correlator.Correlate(ctx, msg)
	if err != nil {
		log.WithFields(log.Fields{
			"messageID": msg.ID,
			"error":     err,
		}).Warn("Failed to scan channel history for bump invoker")
		return
	}
	if !found {
		log.WithFields(log.Fields{
			"messageID": msg.ID,
			"serviceID": msg.AuthorID,
		}).Debug("Bump confirmation could not be attributed")
		r.publisher.Emit(ctx, events.BumpUnattributedEvent{
			MessageID:  msg.ID,
			ChannelID:  msg.ChannelID,
			ServiceID:  msg.AuthorID,
			DetectedAt: r.now(),
		})
		return
	}

	log.WithFields(log.Fields{
		"discordID": member.ID,
		"tag":       member.Tag,
		"messageID": msg.ID,
	}).Info("Bump attributed")

	if err := r.bumps.HandleBump(ctx, member, events.BumpSourceCorrelated, msg.ID); err != nil {
		log.WithFields(log.Fields{
			"discordID": member.ID,
			"error":     err,
		}).Error("Failed to handle bump")
	}
}

func (r *Router) routeUserCommand(ctx context.Context, ev entities.UserCommand) {
	if !strings.EqualFold(ev.Name, r.config.RegisterCommand) {
		return
	}
	r.cleaner.DeleteNow(entities.MessageRef{ChannelID: ev.Message.ChannelID, MessageID: ev.Message.ID})

	if !r.commandLimiter.Allow(ev.Author.ID) {
		r.registrar.NotifyRateLimited(ctx, ev.Message.ChannelID, ev.Author)
		return
	}

	var username string
	if len(ev.Args) > 0 {
		username = ev.Args[0]
	}
	r.registrar.Submit(ctx, services.RegistrationRequest{
		Member:       ev.Author,
		GuildID:      ev.Message.GuildID,
		ChannelID:    ev.Message.ChannelID,
		GameUsername: username,
	})
}

func (r *Router) routeButtonChoice(ctx context.Context, ev entities.ButtonChoice) {
	offer, ok := r.offers.Claim(ev.User.ID, ev.OfferID)
	if !ok {
		r.reply(ctx, ev.Reply, msgNoPendingOffer)
		return
	}
	if err := ev.Reply.Defer(ctx); err != nil {
		log.WithError(err).Debug("Failed to acknowledge button choice")
	}
	outcome := r.offers.Complete(ctx, offer, ev.Choice)
	log.WithFields(log.Fields{
		"discordID": ev.User.ID,
		"offerID":   offer.ID,
		"outcome":   outcome,
	}).Info("Role offer resolved")
}

func (r *Router) routeModalSubmission(ctx context.Context, ev entities.ModalSubmission) {
	if !r.commandLimiter.Allow(ev.User.ID) {
		r.reply(ctx, ev.Reply, msgSubmissionLimit)
		return
	}
	if err := ev.Reply.Defer(ctx); err != nil {
		log.WithError(err).Debug("Failed to acknowledge modal submission")
	}
	r.registrar.Submit(ctx, services.RegistrationRequest{
		Member:       ev.User,
		GuildID:      ev.GuildID,
		ChannelID:    ev.ChannelID,
		GameUsername: ev.GameUsername,
	})
}

// claim records sourceID in the bump ledger and reports whether processing
// should continue. Ledger failures fail open.
func (r *Router) claim(ctx context.Context, sourceID, channelID string) bool {
	claimed, err := r.ledger.ClaimBump(ctx, sourceID, channelID)
	if err != nil {
		log.WithFields(log.Fields{
			"sourceID": sourceID,
			"error":    err,
		}).Warn("Bump ledger unavailable, processing anyway")
		return true
	}
	if !claimed {
		log.WithField("sourceID", sourceID).Debug("Bump already processed")
	}
	return claimed
}

func (r *Router) reply(ctx context.Context, reply entities.InteractionReply, content string) {
	if reply == nil {
		return
	}
	if err := reply.Ephemeral(ctx, content); err != nil {
		log.WithError(err).Debug("Failed to reply to interaction")
	}
}
