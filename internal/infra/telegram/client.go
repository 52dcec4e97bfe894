package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
)

var ErrNotInitialized = errors.New("telegram client is not initialized")

var allowedUpdates = []string{"message", "callback_query", "chat_member", "my_chat_member"}

type UpdateHandler func(context.Context, tgbotapi.Update)

type Client struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	handler     UpdateHandler
	pollTimeout int
	workers     int
	dryRun      bool
}

func NewClient(token string, pollTimeout, workers int, logger *zap.Logger, handler UpdateHandler) (*Client, error) {
	if handler == nil {
		return nil, errors.New("telegram update handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}

	if strings.TrimSpace(token) == "" {
		return &Client{
			logger:      logger,
			handler:     handler,
			pollTimeout: pollTimeout,
			workers:     workers,
			dryRun:      true,
		}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot api: %w", err)
	}

	return &Client{
		api:         api,
		logger:      logger,
		handler:     handler,
		pollTimeout: pollTimeout,
		workers:     workers,
	}, nil
}

// Start polls updates until ctx is done. Updates are handled concurrently by
// at most workers goroutines; Start waits for in-flight handlers on exit.
func (c *Client) Start(ctx context.Context) error {
	if c.dryRun {
		c.logger.Warn("BOT_TOKEN is empty, running in dry mode")
		<-ctx.Done()
		return nil
	}

	timeout := c.pollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = timeout
	updateConfig.AllowedUpdates = allowedUpdates
	updates := c.api.GetUpdatesChan(updateConfig)

	group := new(errgroup.Group)
	group.SetLimit(c.workers)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return group.Wait()
		case update, ok := <-updates:
			if !ok {
				return group.Wait()
			}
			group.Go(func() error {
				c.dispatch(ctx, update)
				return nil
			})
		}
	}
}

func (c *Client) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("update handler panicked",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
			)
		}
	}()
	c.handler(ctx, update)
}

// Self returns the bot account, or a zero user in dry mode.
func (c *Client) Self() tgbotapi.User {
	if c.dryRun || c.api == nil {
		return tgbotapi.User{}
	}
	return c.api.Self
}

func (c *Client) Send(msg tgbotapi.Chattable) error {
	if c.dryRun {
		return nil
	}
	_, err := c.api.Send(msg)
	return err
}

// Request is used for calls whose result is not a message, such as callback
// answers and edits.
func (c *Client) Request(cfg tgbotapi.Chattable) error {
	if c.dryRun {
		return nil
	}
	_, err := c.api.Request(cfg)
	return err
}

func (c *Client) BanMember(ctx context.Context, spaceID, userID int64) error {
	if c.dryRun {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: spaceID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("ban member %d in %d: %w", userID, spaceID, err)
	}
	return nil
}

func (c *Client) MemberStatus(ctx context.Context, spaceID, userID int64) (enums.MemberStatus, error) {
	member, err := c.chatMember(ctx, spaceID, userID)
	if err != nil {
		return enums.MemberStatusNone, err
	}
	status, ok := enums.ParseMemberStatus(member.Status)
	if !ok {
		return enums.MemberStatusNone, fmt.Errorf("unknown member status %q", member.Status)
	}
	return status, nil
}

func (c *Client) ChatTitle(ctx context.Context, spaceID int64) (string, error) {
	if c.dryRun {
		return "", ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: spaceID}})
	if err != nil {
		return "", fmt.Errorf("get chat %d: %w", spaceID, err)
	}
	if chat.Title != "" {
		return chat.Title, nil
	}
	if chat.UserName != "" {
		return "@" + chat.UserName, nil
	}
	return fmt.Sprintf("%d", spaceID), nil
}

func (c *Client) MemberName(ctx context.Context, spaceID, userID int64) (string, error) {
	member, err := c.chatMember(ctx, spaceID, userID)
	if err != nil {
		return "", err
	}
	return UserRefFrom(member.User).DisplayName(), nil
}

func (c *Client) chatMember(ctx context.Context, spaceID, userID int64) (tgbotapi.ChatMember, error) {
	if c.dryRun {
		return tgbotapi.ChatMember{}, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return tgbotapi.ChatMember{}, err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: spaceID, UserID: userID},
	})
	if err != nil {
		return tgbotapi.ChatMember{}, fmt.Errorf("get chat member %d in %d: %w", userID, spaceID, err)
	}
	return member, nil
}
