package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x00FF00 // Green
	ColorDanger  = 0xFF0000 // Red
	ColorError   = 0xFF0000 // Red (alias for ColorDanger)
	ColorWarning = 0xFFA500 // Orange
	ColorNeutral = 0x808080 // Grey
	ColorTimeout = 0xFF6B6B // Salmon
	ColorInfo    = 0x3498DB // Blue
)

// Component custom IDs shared between the renderers and the interaction router
const (
	RoleOfferPrefix        = "role_offer"
	LegacyConfirmCustomID  = "confirm_role_assignment"
	LegacyDeclineCustomID  = "decline_role_assignment"
	UsernameButtonCustomID = "registration_open_modal"
	UsernameModalCustomID  = "registration_username_modal"
	UsernameInputCustomID  = "registration_username"
)

// UI constants
const (
	FooterText         = "Bump Rewards"
	PresenceText       = "for server bumps!"
	BumpCommandName    = "bump"
	MaxRecentLookback  = 100
	GameUsernameMinLen = 3
	GameUsernameMaxLen = 16
)
