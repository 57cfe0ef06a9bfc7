package entities

import "time"

// HiddenUsernamePlaceholder replaces the game username in public announcements
// for members on the hide-list
const HiddenUsernamePlaceholder = "***Hidden***"

// RewardAnnouncement is the public notice that a bump was rewarded
type RewardAnnouncement struct {
	Member          Member
	DisplayUsername string
	Hidden          bool
	RewardLines     []string
	At              time.Time
}

// RewardReport records what a dispatch actually managed to emit
type RewardReport struct {
	Member          Member
	GameUsername    string
	Announced       bool
	CommandsSent    int
	CommandsPlanned int
}

// NoticeKind selects the wording of a registration notice
type NoticeKind string

const (
	NoticeMissingUsername NoticeKind = "missing_username"
	NoticeInvalidUsername NoticeKind = "invalid_username"
	NoticeRegistered      NoticeKind = "registered"
	NoticeUpdated         NoticeKind = "updated"
	NoticeFailed          NoticeKind = "failed"
	NoticeRateLimited     NoticeKind = "rate_limited"
)

// RegistrationNotice is feedback shown after a username submission
type RegistrationNotice struct {
	Kind         NoticeKind
	Member       Member
	GameUsername string
	Reason       string
}
