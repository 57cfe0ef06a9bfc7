package roleoffer

import (
	"fmt"
	"strings"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// CreateOfferComponents creates the confirm and decline buttons for an offer
func CreateOfferComponents(offerID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes, assign role",
					Style:    discordgo.SuccessButton,
					CustomID: BuildCustomID(entities.OfferChoiceConfirm, offerID),
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					Label:    "No, skip role",
					Style:    discordgo.SecondaryButton,
					CustomID: BuildCustomID(entities.OfferChoiceDecline, offerID),
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				},
			},
		},
	}
}

// BuildCustomID encodes a choice for a specific offer: role_offer:<choice>:<offer_id>
func BuildCustomID(choice entities.OfferChoice, offerID string) string {
	return fmt.Sprintf("%s:%s:%s", common.RoleOfferPrefix, choice, offerID)
}

// IsOfferCustomID reports whether customID belongs to a role offer button
func IsOfferCustomID(customID string) bool {
	return customID == common.LegacyConfirmCustomID ||
		customID == common.LegacyDeclineCustomID ||
		strings.HasPrefix(customID, common.RoleOfferPrefix+":")
}

// ParseCustomID decodes a role offer button. Legacy IDs carry no offer ID
// and resolve to whatever offer the clicking member holds.
func ParseCustomID(customID string) (offerID string, choice entities.OfferChoice, ok bool) {
	switch customID {
	case common.LegacyConfirmCustomID:
		return "", entities.OfferChoiceConfirm, true
	case common.LegacyDeclineCustomID:
		return "", entities.OfferChoiceDecline, true
	}

	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != common.RoleOfferPrefix || parts[2] == "" {
		return "", "", false
	}

	switch entities.OfferChoice(parts[1]) {
	case entities.OfferChoiceConfirm:
		return parts[2], entities.OfferChoiceConfirm, true
	case entities.OfferChoiceDecline:
		return parts[2], entities.OfferChoiceDecline, true
	default:
		return "", "", false
	}
}
