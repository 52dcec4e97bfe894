package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

// MemberUpdateFrom validates a chat_member update and converts it into the
// domain event. Private chats and unknown statuses are rejected.
func MemberUpdateFrom(update *tgbotapi.ChatMemberUpdated) (model.MemberUpdate, error) {
	if update == nil {
		return model.MemberUpdate{}, model.ErrInvalidMemberUpdate
	}

	oldStatus, ok := MemberStatusOf(update.OldChatMember)
	if !ok {
		return model.MemberUpdate{}, fmt.Errorf("%w: old status %q", model.ErrInvalidMemberUpdate, update.OldChatMember.Status)
	}
	newStatus, ok := MemberStatusOf(update.NewChatMember)
	if !ok {
		return model.MemberUpdate{}, fmt.Errorf("%w: new status %q", model.ErrInvalidMemberUpdate, update.NewChatMember.Status)
	}

	user := update.NewChatMember.User
	if user == nil {
		user = update.OldChatMember.User
	}
	if user == nil {
		return model.MemberUpdate{}, fmt.Errorf("%w: no subject user", model.ErrInvalidMemberUpdate)
	}

	event := model.MemberUpdate{
		SpaceID:   update.Chat.ID,
		SpaceKind: enums.SpaceKind(update.Chat.Type),
		User:      UserRefFrom(user),
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
	if err := event.Validate(); err != nil {
		return model.MemberUpdate{}, err
	}
	return event, nil
}

// MemberStatusOf reads a restricted user who is no longer in the chat as
// left, so restricted alone always means a member with restrictions.
func MemberStatusOf(member tgbotapi.ChatMember) (enums.MemberStatus, bool) {
	status, ok := enums.ParseMemberStatus(member.Status)
	if ok && status == enums.MemberStatusRestricted && !member.IsMember {
		return enums.MemberStatusLeft, true
	}
	return status, ok
}

func UserRefFrom(user *tgbotapi.User) model.UserRef {
	if user == nil {
		return model.UserRef{}
	}
	return model.UserRef{
		ID:        user.ID,
		FirstName: user.FirstName,
		Username:  user.UserName,
		IsBot:     user.IsBot,
	}
}
