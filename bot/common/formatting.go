package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatBulletList renders one "• " prefixed line per entry
func FormatBulletList(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(line)
	}
	return b.String()
}

// FormatTimeLimit renders a response window in whole minutes or seconds
func FormatTimeLimit(d time.Duration) string {
	if d <= 0 {
		return "a short while to respond"
	}
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%s to respond", plural(int(d/time.Minute), "minute"))
	}
	return fmt.Sprintf("%s to respond", plural(int(d.Round(time.Second)/time.Second), "second"))
}

// InteractionUser returns the user behind an interaction in guilds and DMs
func InteractionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}

// EmbedTimestamp is the RFC3339 timestamp Discord expects on embeds
func EmbedTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
