package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
	"github.com/ivankudzin/tgapp/guardian/internal/services/access"
	"github.com/ivankudzin/tgapp/guardian/internal/ui"
)

const (
	startPayloadPrefix = "panel_"
	recentAuditLimit   = 10
)

type Settings interface {
	GetSettings(ctx context.Context, spaceID int64) model.Space
	ToggleSetting(ctx context.Context, spaceID int64, key enums.SettingKey) (bool, error)
	IncrementStat(ctx context.Context, spaceID int64, field enums.StatField)
	AddSupervisor(ctx context.Context, spaceID, userID int64) bool
	RemoveSupervisor(ctx context.Context, spaceID, userID int64) bool
	ListSpaces(ctx context.Context) []model.Space
	GlobalStats(ctx context.Context) model.GlobalStats
	LogAction(ctx context.Context, spaceID int64, action enums.AuditAction, detail string)
}

type AccessResolver interface {
	ResolveAccess(ctx context.Context, spaceID, userID int64) access.Access
	IsOwner(userID int64) bool
}

// PendingStore keeps one outstanding supervisor request per requester. Take
// must fetch and delete in one step.
type PendingStore interface {
	Put(ctx context.Context, requesterID, spaceID int64) error
	Take(ctx context.Context, requesterID int64) (int64, bool, error)
}

type Directory interface {
	ChatTitle(ctx context.Context, spaceID int64) (string, error)
	MemberName(ctx context.Context, spaceID, userID int64) (string, error)
}

type AuditReader interface {
	ListRecent(ctx context.Context, spaceID int64, limit int) ([]model.Audit, error)
}

// Reply is the outcome of one panel interaction. Notice is shown as a
// callback answer or a plain message; Screen replaces or creates the menu.
type Reply struct {
	Notice string
	Alert  bool
	Screen *ui.Screen
}

func (r Reply) Empty() bool {
	return r.Notice == "" && r.Screen == nil
}

func notice(text string, alert bool) Reply {
	return Reply{Notice: text, Alert: alert}
}

func screen(s ui.Screen) Reply {
	return Reply{Screen: &s}
}

type Controller struct {
	settings  Settings
	access    AccessResolver
	pending   PendingStore
	directory Directory
	audit     AuditReader
	logger    *zap.Logger
}

func NewController(settings Settings, resolver AccessResolver, pending PendingStore, directory Directory, audit AuditReader, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		settings:  settings,
		access:    resolver,
		pending:   pending,
		directory: directory,
		audit:     audit,
		logger:    logger,
	}
}

// PanelLink is the deep link that opens a space's settings in a private chat.
func PanelLink(botUsername string, spaceID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s%d", strings.TrimPrefix(botUsername, "@"), startPayloadPrefix, spaceID)
}

// OpenFromStart handles /start. An empty payload shows the intro screen.
func (c *Controller) OpenFromStart(ctx context.Context, actorID int64, payload string) Reply {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return screen(ui.IntroScreen())
	}
	if !strings.HasPrefix(payload, startPayloadPrefix) {
		return screen(ui.IntroScreen())
	}

	spaceID, err := strconv.ParseInt(strings.TrimPrefix(payload, startPayloadPrefix), 10, 64)
	if err != nil || spaceID == 0 {
		return notice(ui.NoticeInvalidLink, false)
	}
	return c.OpenSettings(ctx, actorID, spaceID)
}

func (c *Controller) OpenSettings(ctx context.Context, actorID, spaceID int64) Reply {
	space, acc, denial := c.authorize(ctx, actorID, spaceID, ui.NoticeNoAccessSpace)
	if denial != "" {
		return notice(denial, false)
	}
	return screen(c.settingsScreen(ctx, space, acc.IsAdmin))
}

func (c *Controller) HandleCallback(ctx context.Context, actorID int64, data string) Reply {
	cb, err := ui.ParseCallback(data)
	if err != nil {
		c.logger.Debug("bad callback", zap.Int64("user_id", actorID), zap.String("data", data), zap.Error(err))
		return notice(ui.NoticeUnknownAction, false)
	}

	switch cb.Scope {
	case ui.ScopeMain:
		return c.handleMain(cb)
	case ui.ScopeOwner:
		return c.handleOwner(ctx, actorID, cb)
	default:
		return c.handleSpace(ctx, actorID, cb)
	}
}

func (c *Controller) handleMain(cb ui.Callback) Reply {
	switch cb.Action {
	case ui.ActionAbout:
		return screen(ui.InfoScreen(ui.AboutText))
	case ui.ActionHelp:
		return screen(ui.InfoScreen(ui.HelpText))
	case ui.ActionBack:
		return screen(ui.IntroScreen())
	case ui.ActionNoAccess:
		return notice(ui.NoticeNoSpace, true)
	default:
		return notice(ui.NoticeUnknownAction, false)
	}
}

func (c *Controller) handleSpace(ctx context.Context, actorID int64, cb ui.Callback) Reply {
	space, acc, denial := c.authorize(ctx, actorID, cb.SpaceID, ui.NoticeNoAccess)
	if denial != "" {
		return notice(denial, true)
	}

	switch cb.Action {
	case ui.ActionMenu:
		return screen(c.settingsScreen(ctx, space, acc.IsAdmin))
	case ui.ActionToggleHitRun:
		return c.toggle(ctx, actorID, space, acc, enums.SettingAntiHitRun, enums.AuditActionToggleHitRun)
	case ui.ActionToggleMaint:
		return c.toggle(ctx, actorID, space, acc, enums.SettingMaintenance, enums.AuditActionToggleMaintenance)
	case ui.ActionSupervisors:
		return screen(c.supervisorsScreen(ctx, space, acc.IsAdmin))
	case ui.ActionAddSupervisor:
		return c.requestSupervisor(ctx, actorID, space.ID, acc)
	case ui.ActionRemoveSupervisor:
		return c.removeSupervisor(ctx, actorID, space.ID, cb.Target, acc)
	case ui.ActionStats:
		return screen(ui.StatsScreen(space.ID, space.Stats))
	case ui.ActionLog:
		return c.recentLog(ctx, space.ID, acc)
	default:
		return notice(ui.NoticeUnknownAction, false)
	}
}

// authorize loads the space and applies the maintenance and access checks in
// that order. A non-empty denial is the notice to show instead.
func (c *Controller) authorize(ctx context.Context, actorID, spaceID int64, noAccess string) (model.Space, access.Access, string) {
	space := c.settings.GetSettings(ctx, spaceID)

	if space.Maintenance && !c.access.IsOwner(actorID) {
		c.settings.IncrementStat(ctx, spaceID, enums.StatMaintenanceHits)
		return space, access.Access{}, ui.NoticeMaintenance
	}

	acc := c.access.ResolveAccess(ctx, spaceID, actorID)
	if !acc.HasAccess {
		return space, acc, noAccess
	}
	return space, acc, ""
}

func (c *Controller) toggle(ctx context.Context, actorID int64, space model.Space, acc access.Access, key enums.SettingKey, action enums.AuditAction) Reply {
	if !acc.IsAdmin {
		return notice(ui.NoticeAdminsOnly, true)
	}

	value, err := c.settings.ToggleSetting(ctx, space.ID, key)
	if err != nil {
		c.logger.Error("toggle setting",
			zap.Int64("space_id", space.ID),
			zap.String("key", string(key)),
			zap.Error(err),
		)
		return notice(ui.NoticeTryAgain, true)
	}
	c.settings.LogAction(ctx, space.ID, action, fmt.Sprintf("Toggled to %t by %d", value, actorID))

	switch key {
	case enums.SettingAntiHitRun:
		space.AntiHitRun = value
	case enums.SettingMaintenance:
		space.Maintenance = value
	}
	return screen(c.settingsScreen(ctx, space, acc.IsAdmin))
}

func (c *Controller) requestSupervisor(ctx context.Context, actorID, spaceID int64, acc access.Access) Reply {
	if !acc.IsAdmin {
		return notice(ui.NoticeAdminsOnly, true)
	}
	if err := c.pending.Put(ctx, actorID, spaceID); err != nil {
		c.logger.Error("store pending supervisor request",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", actorID),
			zap.Error(err),
		)
		return notice(ui.NoticeTryAgain, true)
	}
	return notice(ui.NoticeForwardToAdd, true)
}

func (c *Controller) removeSupervisor(ctx context.Context, actorID, spaceID, targetID int64, acc access.Access) Reply {
	if !acc.IsAdmin {
		return notice(ui.NoticeAdminsOnly, true)
	}

	reply := notice(ui.NoticeFailed, true)
	if c.settings.RemoveSupervisor(ctx, spaceID, targetID) {
		c.settings.LogAction(ctx, spaceID, enums.AuditActionRemoveSupervisor, fmt.Sprintf("Removed %d by %d", targetID, actorID))
		reply.Notice = ui.NoticeRemoved
	}

	space := c.settings.GetSettings(ctx, spaceID)
	list := c.supervisorsScreen(ctx, space, acc.IsAdmin)
	reply.Screen = &list
	return reply
}

// HandleForward completes a pending supervisor request with the identity of
// a forwarded message. The request is consumed whatever the outcome.
func (c *Controller) HandleForward(ctx context.Context, actorID int64, forwarded *model.UserRef) Reply {
	spaceID, ok, err := c.pending.Take(ctx, actorID)
	if err != nil {
		c.logger.Warn("take pending supervisor request", zap.Int64("user_id", actorID), zap.Error(err))
	}
	if err != nil || !ok {
		return notice(ui.NoticeNoPendingRequest, false)
	}

	if forwarded == nil || forwarded.ID == 0 || forwarded.IsBot {
		return notice(ui.NoticeInvalidForward, false)
	}

	if !c.settings.AddSupervisor(ctx, spaceID, forwarded.ID) {
		return notice(ui.NoticeAlreadySup, false)
	}
	c.settings.LogAction(ctx, spaceID, enums.AuditActionAddSupervisor, fmt.Sprintf("Added %d by %d", forwarded.ID, actorID))
	return notice(fmt.Sprintf("✅ %s added as supervisor!", forwarded.DisplayName()), false)
}

func (c *Controller) recentLog(ctx context.Context, spaceID int64, acc access.Access) Reply {
	if !acc.IsAdmin {
		return notice(ui.NoticeAdminsOnly, true)
	}
	if c.audit == nil {
		return screen(ui.LogScreen(spaceID, nil))
	}

	entries, err := c.audit.ListRecent(ctx, spaceID, recentAuditLimit)
	if err != nil {
		c.logger.Warn("list recent audit", zap.Int64("space_id", spaceID), zap.Error(err))
		return notice(ui.NoticeTryAgain, true)
	}
	return screen(ui.LogScreen(spaceID, entries))
}

// OwnerPanel returns the global statistics screen, or an empty reply for
// anyone but the owner.
func (c *Controller) OwnerPanel(ctx context.Context, actorID int64) Reply {
	if !c.access.IsOwner(actorID) {
		return Reply{}
	}
	return screen(ui.OwnerScreen(c.settings.GlobalStats(ctx)))
}

func (c *Controller) handleOwner(ctx context.Context, actorID int64, cb ui.Callback) Reply {
	if !c.access.IsOwner(actorID) {
		return notice(ui.NoticeOwnerOnly, true)
	}

	switch cb.Action {
	case ui.ActionSpaces:
		return screen(ui.SpaceListScreen(c.spaceEntries(ctx)))
	case ui.ActionBack:
		return c.OwnerPanel(ctx, actorID)
	default:
		return notice(ui.NoticeUnknownAction, false)
	}
}

func (c *Controller) spaceEntries(ctx context.Context) []ui.SpaceEntry {
	spaces := c.settings.ListSpaces(ctx)
	if len(spaces) > ui.MaxListedSpaces {
		spaces = spaces[:ui.MaxListedSpaces]
	}

	entries := make([]ui.SpaceEntry, 0, len(spaces))
	for _, space := range spaces {
		entry := ui.SpaceEntry{ID: space.ID}
		if c.directory != nil {
			title, err := c.directory.ChatTitle(ctx, space.ID)
			if err == nil {
				entry.Title = title
				entry.Accessible = true
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *Controller) settingsScreen(ctx context.Context, space model.Space, isAdmin bool) ui.Screen {
	return ui.SettingsScreen(c.title(ctx, space.ID), space, isAdmin)
}

func (c *Controller) supervisorsScreen(ctx context.Context, space model.Space, isAdmin bool) ui.Screen {
	ids := space.Supervisors
	if len(ids) > ui.MaxListedSupervisors {
		ids = ids[:ui.MaxListedSupervisors]
	}

	entries := make([]ui.SupervisorEntry, 0, len(ids))
	for _, id := range ids {
		entry := ui.SupervisorEntry{ID: id}
		if c.directory != nil {
			if name, err := c.directory.MemberName(ctx, space.ID, id); err == nil {
				entry.Name = name
			}
		}
		entries = append(entries, entry)
	}
	return ui.SupervisorsScreen(space.ID, entries, len(space.Supervisors), isAdmin)
}

func (c *Controller) title(ctx context.Context, spaceID int64) string {
	if c.directory == nil {
		return ""
	}
	title, err := c.directory.ChatTitle(ctx, spaceID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("chat title lookup failed", zap.Int64("space_id", spaceID), zap.Error(err))
		}
		return ""
	}
	return title
}
