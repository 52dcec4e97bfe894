package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

func TestMemberUpdateFromJoin(t *testing.T) {
	user := &tgbotapi.User{ID: 55, FirstName: "Ann", UserName: "ann"}
	event, err := MemberUpdateFrom(&tgbotapi.ChatMemberUpdated{
		Chat:          tgbotapi.Chat{ID: -1001, Type: "supergroup"},
		OldChatMember: tgbotapi.ChatMember{User: user, Status: "left"},
		NewChatMember: tgbotapi.ChatMember{User: user, Status: "member"},
	})
	if err != nil {
		t.Fatalf("convert update: %v", err)
	}

	if event.SpaceID != -1001 || event.SpaceKind != enums.SpaceKindSupergroup {
		t.Fatalf("unexpected space: %+v", event)
	}
	if event.User.ID != 55 || event.User.FirstName != "Ann" {
		t.Fatalf("unexpected user: %+v", event.User)
	}
	if !event.IsJoin() {
		t.Fatalf("expected join transition")
	}
}

func TestMemberUpdateFromRejectsPrivateAndUnknown(t *testing.T) {
	user := &tgbotapi.User{ID: 55}

	_, err := MemberUpdateFrom(&tgbotapi.ChatMemberUpdated{
		Chat:          tgbotapi.Chat{ID: 55, Type: "private"},
		OldChatMember: tgbotapi.ChatMember{User: user, Status: "left"},
		NewChatMember: tgbotapi.ChatMember{User: user, Status: "member"},
	})
	if !errors.Is(err, model.ErrInvalidMemberUpdate) {
		t.Fatalf("private chat must be rejected, got %v", err)
	}

	_, err = MemberUpdateFrom(&tgbotapi.ChatMemberUpdated{
		Chat:          tgbotapi.Chat{ID: -1001, Type: "group"},
		OldChatMember: tgbotapi.ChatMember{User: user, Status: "left"},
		NewChatMember: tgbotapi.ChatMember{User: user, Status: "superuser"},
	})
	if !errors.Is(err, model.ErrInvalidMemberUpdate) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	if _, err := MemberUpdateFrom(nil); !errors.Is(err, model.ErrInvalidMemberUpdate) {
		t.Fatalf("nil update must be rejected, got %v", err)
	}
}

func TestMemberUpdateFromRestricted(t *testing.T) {
	user := &tgbotapi.User{ID: 55, FirstName: "Ann"}
	chat := tgbotapi.Chat{ID: -1001, Type: "supergroup"}

	unrestrict, err := MemberUpdateFrom(&tgbotapi.ChatMemberUpdated{
		Chat:          chat,
		OldChatMember: tgbotapi.ChatMember{User: user, Status: "restricted", IsMember: true},
		NewChatMember: tgbotapi.ChatMember{User: user, Status: "member"},
	})
	if err != nil {
		t.Fatalf("convert unrestrict: %v", err)
	}
	if unrestrict.OldStatus != enums.MemberStatusRestricted || unrestrict.IsJoin() {
		t.Fatalf("lifting restrictions must not be a join: %+v", unrestrict)
	}

	rejoin, err := MemberUpdateFrom(&tgbotapi.ChatMemberUpdated{
		Chat:          chat,
		OldChatMember: tgbotapi.ChatMember{User: user, Status: "restricted", IsMember: false},
		NewChatMember: tgbotapi.ChatMember{User: user, Status: "member"},
	})
	if err != nil {
		t.Fatalf("convert rejoin: %v", err)
	}
	if rejoin.OldStatus != enums.MemberStatusLeft || !rejoin.IsJoin() {
		t.Fatalf("restricted user outside the chat joining must be a join: %+v", rejoin)
	}
}
