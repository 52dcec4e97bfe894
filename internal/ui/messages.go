package ui

const (
	IntroText = "🛡️ <b>Guardian Bot</b>\n\n" +
		"Protection for your Telegram channels &amp; groups.\n" +
		"• Anti Hit-and-Run protection\n" +
		"• Maintenance mode\n" +
		"• Supervisor system\n\n" +
		"Designed for channel owners &amp; admins."

	AboutText = "ℹ <b>About Guardian Bot</b>\n\n" +
		"Channel and group protection bot.\n" +
		"Users who join and leave within minutes are flagged and banned when they come back."

	HelpText = "📖 <b>Help</b>\n\n" +
		"1. Add the bot as admin with ban rights\n" +
		"2. Use /panel in the group to open settings\n" +
		"3. Toggle features as needed"

	WelcomeText = "🛡️ <b>Guardian Bot is active</b>\n\n" +
		"• Anti Hit-and-Run: users leaving within 5 minutes are flagged and banned on return\n" +
		"• Maintenance mode pauses all automation\n" +
		"• Supervisors can view statistics\n\n" +
		"Give me ban rights and use /panel to configure."

	PanelPromptText = "Click to manage this channel/group settings:"
)

// Notices shown as callback answers or plain replies.
const (
	NoticeMaintenance      = "🛠 Bot is under maintenance"
	NoticeNoAccess         = "❌ No access"
	NoticeNoAccessSpace    = "❌ You don't have access to manage this channel."
	NoticeAdminsOnly       = "Admins only"
	NoticeNoSpace          = "Add me as admin to a group/channel and use /panel there."
	NoticeForwardToAdd     = "Forward any message from the user you want to add as supervisor."
	NoticeRemoved          = "Removed"
	NoticeFailed           = "Failed"
	NoticeInvalidForward   = "Invalid forwarded user."
	NoticeAlreadySup       = "Already a supervisor or error."
	NoticeNoPendingRequest = "No supervisor request is pending. Open the supervisor list and press Add first."
	NoticeInvalidLink      = "Invalid link."
	NoticeOwnerOnly        = "Owner only"
	NoticeUnknownAction    = "Unknown action"
	NoticeTryAgain         = "Something went wrong, try again."
)
