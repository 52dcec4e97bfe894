package hitrun

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const DefaultThreshold = 5 * time.Minute

type Outcome string

const (
	OutcomeIgnored            Outcome = "ignored"
	OutcomeMaintenance        Outcome = "maintenance"
	OutcomeJoinCounted        Outcome = "join_counted"
	OutcomeJoinTracked        Outcome = "join_tracked"
	OutcomeBanned             Outcome = "banned"
	OutcomeBanFailed          Outcome = "ban_failed"
	OutcomeFlagged            Outcome = "flagged"
	OutcomeFlagFailed         Outcome = "flag_failed"
	OutcomeLeftUntracked      Outcome = "left_untracked"
	OutcomeLeftAfterThreshold Outcome = "left_after_threshold"
)

type Settings interface {
	GetSettings(ctx context.Context, spaceID int64) model.Space
	IncrementStat(ctx context.Context, spaceID int64, field enums.StatField)
	LogAction(ctx context.Context, spaceID int64, action enums.AuditAction, detail string)
}

type Ledger interface {
	RecordJoin(ctx context.Context, spaceID, userID int64) error
	TakeJoinTime(ctx context.Context, spaceID, userID int64) (time.Time, bool)
	IsFlagged(ctx context.Context, spaceID, userID int64) bool
	Flag(ctx context.Context, spaceID, userID int64) error
}

type Banner interface {
	BanMember(ctx context.Context, spaceID, userID int64) error
}

type Config struct {
	Threshold time.Duration
	SelfID    int64
}

// Detector bans users who join and leave a space within the threshold and
// later come back. The first short visit only flags the user.
type Detector struct {
	settings  Settings
	ledger    Ledger
	banner    Banner
	threshold time.Duration
	selfID    int64
	logger    *zap.Logger
	now       func() time.Time
}

func NewDetector(settings Settings, ledger Ledger, banner Banner, cfg Config, logger *zap.Logger) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		settings:  settings,
		ledger:    ledger,
		banner:    banner,
		threshold: cfg.Threshold,
		selfID:    cfg.SelfID,
		logger:    logger,
		now:       time.Now,
	}
}

// SetSelfID sets the bot's own user ID once it is known.
func (d *Detector) SetSelfID(id int64) {
	d.selfID = id
}

func (d *Detector) Handle(ctx context.Context, update model.MemberUpdate) Outcome {
	if err := update.Validate(); err != nil {
		return OutcomeIgnored
	}

	space := d.settings.GetSettings(ctx, update.SpaceID)
	if space.Maintenance {
		return OutcomeMaintenance
	}

	if update.User.IsBot || (d.selfID != 0 && update.User.ID == d.selfID) {
		return OutcomeIgnored
	}

	switch {
	case update.IsJoin():
		return d.handleJoin(ctx, space, update)
	case update.IsVoluntaryLeave() && space.AntiHitRun:
		return d.handleLeave(ctx, update)
	default:
		return OutcomeIgnored
	}
}

func (d *Detector) handleJoin(ctx context.Context, space model.Space, update model.MemberUpdate) Outcome {
	spaceID, userID := update.SpaceID, update.User.ID
	d.settings.IncrementStat(ctx, spaceID, enums.StatJoins)

	if !space.AntiHitRun {
		return OutcomeJoinCounted
	}

	if d.ledger.IsFlagged(ctx, spaceID, userID) {
		if err := d.banner.BanMember(ctx, spaceID, userID); err != nil {
			d.logger.Warn("hit-and-run ban failed",
				zap.Int64("space_id", spaceID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			d.settings.LogAction(ctx, spaceID, enums.AuditActionError,
				fmt.Sprintf("Failed to ban %s: %v", userLabel(update.User), err))
			return OutcomeBanFailed
		}

		d.settings.IncrementStat(ctx, spaceID, enums.StatBans)
		d.settings.LogAction(ctx, spaceID, enums.AuditActionHitRunBan,
			fmt.Sprintf("Banned %s on rejoin after hit-and-run", userLabel(update.User)))
		return OutcomeBanned
	}

	if err := d.ledger.RecordJoin(ctx, spaceID, userID); err != nil {
		d.logger.Warn("record join failed",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	return OutcomeJoinTracked
}

func (d *Detector) handleLeave(ctx context.Context, update model.MemberUpdate) Outcome {
	spaceID, userID := update.SpaceID, update.User.ID

	joinedAt, ok := d.ledger.TakeJoinTime(ctx, spaceID, userID)
	if !ok {
		return OutcomeLeftUntracked
	}

	dwell := d.now().Sub(joinedAt)
	if dwell >= d.threshold {
		return OutcomeLeftAfterThreshold
	}
	if dwell < 0 {
		dwell = 0
	}

	if err := d.ledger.Flag(ctx, spaceID, userID); err != nil {
		d.logger.Warn("flag hit-and-run failed",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return OutcomeFlagFailed
	}

	d.settings.LogAction(ctx, spaceID, enums.AuditActionHitRunFlag,
		fmt.Sprintf("Flagged %s: left after %ds", userLabel(update.User), int64(dwell.Seconds())))
	return OutcomeFlagged
}

func userLabel(user model.UserRef) string {
	return fmt.Sprintf("%s (%d)", user.DisplayName(), user.ID)
}
