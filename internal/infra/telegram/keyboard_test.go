package telegram

import "testing"

func TestBuildInlineKeyboard(t *testing.T) {
	markup := BuildInlineKeyboard([][]InlineButton{
		{{Text: "Stats", Data: "cfg:stats:-100"}},
		{{Text: "Open", URL: "https://t.me/guardian_bot?start=panel_-100"}, {Text: "Back", Data: "main:back"}},
	})

	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("unexpected rows: %d", len(markup.InlineKeyboard))
	}
	first := markup.InlineKeyboard[0][0]
	if first.CallbackData == nil || *first.CallbackData != "cfg:stats:-100" {
		t.Fatalf("unexpected callback data: %+v", first)
	}
	link := markup.InlineKeyboard[1][0]
	if link.URL == nil || *link.URL != "https://t.me/guardian_bot?start=panel_-100" || link.CallbackData != nil {
		t.Fatalf("unexpected url button: %+v", link)
	}
	if len(markup.InlineKeyboard[1]) != 2 {
		t.Fatalf("unexpected second row: %+v", markup.InlineKeyboard[1])
	}
}
