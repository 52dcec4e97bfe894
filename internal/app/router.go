package app

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
	"github.com/ivankudzin/tgapp/guardian/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/guardian/internal/services/hitrun"
	"github.com/ivankudzin/tgapp/guardian/internal/services/panel"
	"github.com/ivankudzin/tgapp/guardian/internal/ui"
)

const (
	commandPanel = "panel"
	commandStart = "start"
	commandStats = "stats"
)

type messenger interface {
	Send(msg tgbotapi.Chattable) error
	Request(cfg tgbotapi.Chattable) error
	Self() tgbotapi.User
}

type memberEvents interface {
	Handle(ctx context.Context, update model.MemberUpdate) hitrun.Outcome
}

type panelService interface {
	OpenFromStart(ctx context.Context, actorID int64, payload string) panel.Reply
	HandleCallback(ctx context.Context, actorID int64, data string) panel.Reply
	HandleForward(ctx context.Context, actorID int64, forwarded *model.UserRef) panel.Reply
	OwnerPanel(ctx context.Context, actorID int64) panel.Reply
}

type adminChecker interface {
	IsSpaceAdmin(ctx context.Context, spaceID, userID int64) bool
}

// Router turns Telegram updates into calls on the detector and the panel and
// renders their replies back into Telegram messages.
type Router struct {
	bot     messenger
	members memberEvents
	panel   panelService
	admins  adminChecker
	logger  *zap.Logger
}

func NewRouter(bot messenger, members memberEvents, panel panelService, admins adminChecker, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		bot:     bot,
		members: members,
		panel:   panel,
		admins:  admins,
		logger:  logger,
	}
}

func (r *Router) Route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.ChatMember != nil:
		r.handleMemberUpdate(ctx, update.ChatMember)
	case update.MyChatMember != nil:
		r.handleBotMembership(update.MyChatMember)
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		r.routeMessage(ctx, update.Message)
	}
}

func (r *Router) handleMemberUpdate(ctx context.Context, raw *tgbotapi.ChatMemberUpdated) {
	if r.members == nil {
		return
	}
	event, err := telegram.MemberUpdateFrom(raw)
	if err != nil {
		r.logger.Debug("skip member update", zap.Error(err))
		return
	}
	outcome := r.members.Handle(ctx, event)
	r.logger.Debug("member update handled",
		zap.Int64("space_id", event.SpaceID),
		zap.Int64("user_id", event.User.ID),
		zap.String("outcome", string(outcome)),
	)
}

func (r *Router) handleBotMembership(raw *tgbotapi.ChatMemberUpdated) {
	oldStatus, _ := telegram.MemberStatusOf(raw.OldChatMember)
	newStatus, ok := telegram.MemberStatusOf(raw.NewChatMember)
	if !ok || oldStatus.InSpace() {
		return
	}
	if newStatus != enums.MemberStatusMember && newStatus != enums.MemberStatusAdministrator {
		return
	}

	r.logger.Info("bot added to space", zap.Int64("space_id", raw.Chat.ID))
	msg := tgbotapi.NewMessage(raw.Chat.ID, ui.WelcomeText)
	msg.ParseMode = tgbotapi.ModeHTML
	if err := r.bot.Send(msg); err != nil {
		r.logger.Debug("send welcome message", zap.Int64("space_id", raw.Chat.ID), zap.Error(err))
	}
}

func (r *Router) routeMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	private := message.Chat.IsPrivate()

	if message.IsCommand() {
		switch message.Command() {
		case commandPanel:
			if !private {
				r.handlePanelCommand(ctx, message)
			}
		case commandStart:
			if private {
				r.sendReply(message.Chat.ID, r.panel.OpenFromStart(ctx, message.From.ID, message.CommandArguments()))
			}
		case commandStats:
			if private {
				r.sendReply(message.Chat.ID, r.panel.OwnerPanel(ctx, message.From.ID))
			}
		}
		return
	}

	if private && isForwarded(message) {
		r.sendReply(message.Chat.ID, r.panel.HandleForward(ctx, message.From.ID, forwardedUser(message)))
	}
}

// handlePanelCommand answers space admins with a deep link into the private
// settings panel. Everyone else is ignored.
func (r *Router) handlePanelCommand(ctx context.Context, message *tgbotapi.Message) {
	if r.admins == nil || !r.admins.IsSpaceAdmin(ctx, message.Chat.ID, message.From.ID) {
		return
	}
	username := strings.TrimSpace(r.bot.Self().UserName)
	if username == "" {
		r.logger.Warn("bot username is unknown, cannot build panel link")
		return
	}
	screen := ui.PanelLinkScreen(panel.PanelLink(username, message.Chat.ID))
	r.sendReply(message.Chat.ID, panel.Reply{Screen: &screen})
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}
	reply := r.panel.HandleCallback(ctx, query.From.ID, query.Data)

	answer := tgbotapi.NewCallback(query.ID, reply.Notice)
	answer.ShowAlert = reply.Alert
	if err := r.bot.Request(answer); err != nil {
		r.logger.Debug("answer callback", zap.String("callback_id", query.ID), zap.Error(err))
	}

	if reply.Screen == nil || query.Message == nil || query.Message.Chat == nil {
		return
	}
	if err := r.bot.Request(editScreen(query.Message.Chat.ID, query.Message.MessageID, *reply.Screen)); err != nil {
		r.logger.Debug("edit panel message",
			zap.Int64("chat_id", query.Message.Chat.ID),
			zap.Error(err),
		)
	}
}

// sendReply posts a notice and then a screen as separate messages.
func (r *Router) sendReply(chatID int64, reply panel.Reply) {
	if reply.Empty() {
		return
	}
	if reply.Notice != "" {
		if err := r.bot.Send(tgbotapi.NewMessage(chatID, reply.Notice)); err != nil {
			r.logger.Warn("send notice", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
	if reply.Screen != nil {
		if err := r.bot.Send(newScreen(chatID, *reply.Screen)); err != nil {
			r.logger.Warn("send screen", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func newScreen(chatID int64, screen ui.Screen) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, screen.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(screen.Rows) > 0 {
		msg.ReplyMarkup = telegram.BuildInlineKeyboard(screen.Rows)
	}
	return msg
}

func editScreen(chatID int64, messageID int, screen ui.Screen) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, screen.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if len(screen.Rows) > 0 {
		markup := telegram.BuildInlineKeyboard(screen.Rows)
		edit.ReplyMarkup = &markup
	}
	return edit
}

func isForwarded(message *tgbotapi.Message) bool {
	return message.ForwardDate != 0 || message.ForwardFrom != nil ||
		message.ForwardFromChat != nil || message.ForwardSenderName != ""
}

// forwardedUser is nil when the original sender hid their account or the
// message came from a chat rather than a user.
func forwardedUser(message *tgbotapi.Message) *model.UserRef {
	if message.ForwardFrom == nil {
		return nil
	}
	ref := telegram.UserRefFrom(message.ForwardFrom)
	return &ref
}
