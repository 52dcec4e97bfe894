package hitrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const (
	testSpace = int64(-1001)
	testUser  = int64(55)
	botSelf   = int64(999)
)

type clock struct {
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type settingsStub struct {
	space   model.Space
	stats   map[enums.StatField]int
	actions []enums.AuditAction
	details []string
}

func newSettingsStub(antiHitRun bool) *settingsStub {
	return &settingsStub{
		space: model.Space{ID: testSpace, AntiHitRun: antiHitRun, Supervisors: []int64{}},
		stats: map[enums.StatField]int{},
	}
}

func (s *settingsStub) GetSettings(_ context.Context, spaceID int64) model.Space {
	space := s.space
	space.ID = spaceID
	return space
}

func (s *settingsStub) IncrementStat(_ context.Context, _ int64, field enums.StatField) {
	s.stats[field]++
}

func (s *settingsStub) LogAction(_ context.Context, _ int64, action enums.AuditAction, detail string) {
	s.actions = append(s.actions, action)
	s.details = append(s.details, detail)
}

type pairKey struct {
	space int64
	user  int64
}

type ledgerStub struct {
	clock   *clock
	joins   map[pairKey]time.Time
	flags   map[pairKey]struct{}
	writes  int
	flagErr error
}

func newLedgerStub(c *clock) *ledgerStub {
	return &ledgerStub{clock: c, joins: map[pairKey]time.Time{}, flags: map[pairKey]struct{}{}}
}

func (l *ledgerStub) RecordJoin(_ context.Context, spaceID, userID int64) error {
	l.writes++
	l.joins[pairKey{spaceID, userID}] = l.clock.Now()
	return nil
}

func (l *ledgerStub) TakeJoinTime(_ context.Context, spaceID, userID int64) (time.Time, bool) {
	key := pairKey{spaceID, userID}
	joinedAt, ok := l.joins[key]
	delete(l.joins, key)
	return joinedAt, ok
}

func (l *ledgerStub) IsFlagged(_ context.Context, spaceID, userID int64) bool {
	_, ok := l.flags[pairKey{spaceID, userID}]
	return ok
}

func (l *ledgerStub) Flag(_ context.Context, spaceID, userID int64) error {
	if l.flagErr != nil {
		return l.flagErr
	}
	l.flags[pairKey{spaceID, userID}] = struct{}{}
	return nil
}

type bannerStub struct {
	bans []pairKey
	err  error
}

func (b *bannerStub) BanMember(_ context.Context, spaceID, userID int64) error {
	if b.err != nil {
		return b.err
	}
	b.bans = append(b.bans, pairKey{spaceID, userID})
	return nil
}

type fixture struct {
	clock    *clock
	settings *settingsStub
	ledger   *ledgerStub
	banner   *bannerStub
	detector *Detector
}

func newFixture(antiHitRun bool) *fixture {
	c := newClock()
	f := &fixture{
		clock:    c,
		settings: newSettingsStub(antiHitRun),
		ledger:   newLedgerStub(c),
		banner:   &bannerStub{},
	}
	f.detector = NewDetector(f.settings, f.ledger, f.banner, Config{SelfID: botSelf}, nil)
	f.detector.now = c.Now
	return f
}

func transition(userID int64, oldStatus, newStatus enums.MemberStatus) model.MemberUpdate {
	return model.MemberUpdate{
		SpaceID:   testSpace,
		SpaceKind: enums.SpaceKindSupergroup,
		User:      model.UserRef{ID: userID, FirstName: "Ann"},
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}

func join(userID int64) model.MemberUpdate {
	return transition(userID, enums.MemberStatusLeft, enums.MemberStatusMember)
}

func leave(userID int64) model.MemberUpdate {
	return transition(userID, enums.MemberStatusMember, enums.MemberStatusLeft)
}

func TestQuickLeaveFlagsAndRejoinBans(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	if got := f.detector.Handle(ctx, join(testUser)); got != OutcomeJoinTracked {
		t.Fatalf("join: got %s", got)
	}
	f.clock.Advance(2 * time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeFlagged {
		t.Fatalf("leave: got %s", got)
	}
	if !f.ledger.IsFlagged(ctx, testSpace, testUser) {
		t.Fatalf("user should be flagged")
	}
	if len(f.settings.actions) != 1 || f.settings.actions[0] != enums.AuditActionHitRunFlag {
		t.Fatalf("unexpected audit after flag: %v", f.settings.actions)
	}

	f.clock.Advance(time.Hour)
	writesBefore := f.ledger.writes
	if got := f.detector.Handle(ctx, join(testUser)); got != OutcomeBanned {
		t.Fatalf("rejoin: got %s", got)
	}
	if len(f.banner.bans) != 1 || f.settings.stats[enums.StatBans] != 1 {
		t.Fatalf("expected exactly one ban: bans=%v counter=%d", f.banner.bans, f.settings.stats[enums.StatBans])
	}
	if f.ledger.writes != writesBefore {
		t.Fatalf("banned rejoin must not create a join record")
	}
	if f.settings.stats[enums.StatJoins] != 2 {
		t.Fatalf("both joins must be counted, got %d", f.settings.stats[enums.StatJoins])
	}
	if last := f.settings.actions[len(f.settings.actions)-1]; last != enums.AuditActionHitRunBan {
		t.Fatalf("unexpected last audit action: %s", last)
	}
}

func TestLeaveAfterThresholdIsNotFlagged(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(10 * time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeLeftAfterThreshold {
		t.Fatalf("leave: got %s", got)
	}
	if f.ledger.IsFlagged(ctx, testSpace, testUser) {
		t.Fatalf("long stay must not flag")
	}

	f.clock.Advance(time.Hour)
	if got := f.detector.Handle(ctx, join(testUser)); got != OutcomeJoinTracked {
		t.Fatalf("rejoin should take the normal path, got %s", got)
	}
	if len(f.banner.bans) != 0 {
		t.Fatalf("no ban expected")
	}
}

func TestThresholdBoundary(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(DefaultThreshold)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeLeftAfterThreshold {
		t.Fatalf("leaving exactly at the threshold must not flag, got %s", got)
	}

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(DefaultThreshold - time.Second)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeFlagged {
		t.Fatalf("leaving just under the threshold must flag, got %s", got)
	}
}

func TestFlaggedOnlyForQuickJoinLeavePair(t *testing.T) {
	type step struct {
		wait   time.Duration
		update model.MemberUpdate
	}
	kick := transition(testUser, enums.MemberStatusMember, enums.MemberStatusKicked)

	cases := map[string]struct {
		steps   []step
		flagged bool
	}{
		"slow then quick stay": {
			steps:   []step{{0, join(testUser)}, {6 * time.Minute, leave(testUser)}, {time.Hour, join(testUser)}, {time.Minute, leave(testUser)}},
			flagged: true,
		},
		"two slow stays": {
			steps: []step{{0, join(testUser)}, {6 * time.Minute, leave(testUser)}, {time.Hour, join(testUser)}, {7 * time.Minute, leave(testUser)}},
		},
		"repeated join restarts the clock": {
			steps:   []step{{0, join(testUser)}, {10 * time.Minute, join(testUser)}, {2 * time.Minute, leave(testUser)}},
			flagged: true,
		},
		"leave without join": {
			steps: []step{{0, leave(testUser)}, {time.Minute, leave(testUser)}},
		},
		"quick kick": {
			steps: []step{{0, join(testUser)}, {time.Minute, kick}},
		},
		"quick leave twice": {
			steps:   []step{{0, join(testUser)}, {time.Minute, leave(testUser)}, {time.Minute, leave(testUser)}},
			flagged: true,
		},
	}

	for name, tc := range cases {
		f := newFixture(true)
		ctx := context.Background()
		for _, s := range tc.steps {
			f.clock.Advance(s.wait)
			f.detector.Handle(ctx, s.update)
		}
		if got := f.ledger.IsFlagged(ctx, testSpace, testUser); got != tc.flagged {
			t.Fatalf("%s: flagged=%v, want %v", name, got, tc.flagged)
		}
		if len(f.ledger.flags) > 1 {
			t.Fatalf("%s: flagged set must hold one entry, got %d", name, len(f.ledger.flags))
		}
	}
}

func TestAntiHitRunOffCountsButDoesNotTrack(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	if got := f.detector.Handle(ctx, join(testUser)); got != OutcomeJoinCounted {
		t.Fatalf("join: got %s", got)
	}
	f.clock.Advance(time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeIgnored {
		t.Fatalf("leave: got %s", got)
	}

	if f.settings.stats[enums.StatJoins] != 1 {
		t.Fatalf("join must still be counted")
	}
	if f.ledger.writes != 0 || len(f.ledger.flags) != 0 {
		t.Fatalf("no ledger writes expected with anti_hitrun off")
	}
}

func TestToggleOffBetweenJoinAndLeave(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.settings.space.AntiHitRun = false
	f.clock.Advance(time.Minute)
	f.detector.Handle(ctx, leave(testUser))

	if f.ledger.IsFlagged(ctx, testSpace, testUser) {
		t.Fatalf("no flag expected after anti_hitrun was turned off")
	}
}

func TestFlaggedUserIsBannedWithoutPriorRecord(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	f.ledger.flags[pairKey{testSpace, testUser}] = struct{}{}
	f.ledger.joins[pairKey{testSpace, testUser}] = f.clock.Now().Add(-time.Hour)

	if got := f.detector.Handle(ctx, join(testUser)); got != OutcomeBanned {
		t.Fatalf("join: got %s", got)
	}
	if len(f.banner.bans) != 1 || f.settings.stats[enums.StatBans] != 1 {
		t.Fatalf("exactly one ban expected")
	}
}

func TestMaintenanceSuppressesEverything(t *testing.T) {
	f := newFixture(true)
	f.settings.space.Maintenance = true
	f.ledger.flags[pairKey{testSpace, 77}] = struct{}{}
	ctx := context.Background()

	for _, update := range []model.MemberUpdate{join(testUser), leave(testUser), join(77)} {
		if got := f.detector.Handle(ctx, update); got != OutcomeMaintenance {
			t.Fatalf("expected maintenance outcome, got %s", got)
		}
	}

	if len(f.settings.stats) != 0 || len(f.banner.bans) != 0 || f.ledger.writes != 0 || len(f.settings.actions) != 0 {
		t.Fatalf("maintenance must have no side effects: stats=%v bans=%v writes=%d", f.settings.stats, f.banner.bans, f.ledger.writes)
	}
}

func TestBotsAndSelfAreIgnored(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	bot := join(123)
	bot.User.IsBot = true
	if got := f.detector.Handle(ctx, bot); got != OutcomeIgnored {
		t.Fatalf("bot join: got %s", got)
	}
	if got := f.detector.Handle(ctx, join(botSelf)); got != OutcomeIgnored {
		t.Fatalf("self join: got %s", got)
	}
	if len(f.settings.stats) != 0 {
		t.Fatalf("ignored events must not touch counters")
	}
}

func TestKickAndPromotionAreNotVoluntaryLeaves(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(time.Minute)

	cases := []model.MemberUpdate{
		transition(testUser, enums.MemberStatusMember, enums.MemberStatusKicked),
		transition(testUser, enums.MemberStatusMember, enums.MemberStatusAdministrator),
		transition(testUser, enums.MemberStatusRestricted, enums.MemberStatusLeft),
	}
	for _, update := range cases {
		if got := f.detector.Handle(ctx, update); got != OutcomeIgnored {
			t.Fatalf("%s -> %s: got %s", update.OldStatus, update.NewStatus, got)
		}
	}
	if len(f.ledger.flags) != 0 {
		t.Fatalf("no flag expected")
	}
	if _, ok := f.ledger.joins[pairKey{testSpace, testUser}]; !ok {
		t.Fatalf("join record must survive non-voluntary transitions")
	}
}

func TestUnrestrictedMemberLeavingIsNotFlagged(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	if got := f.detector.Handle(ctx, transition(testUser, enums.MemberStatusRestricted, enums.MemberStatusMember)); got != OutcomeIgnored {
		t.Fatalf("unrestrict: got %s", got)
	}
	f.clock.Advance(time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeLeftUntracked {
		t.Fatalf("leave after unrestrict: got %s", got)
	}
	if f.settings.stats[enums.StatJoins] != 0 || f.ledger.writes != 0 {
		t.Fatalf("unrestrict must not count or record a join: joins=%d writes=%d", f.settings.stats[enums.StatJoins], f.ledger.writes)
	}
	if len(f.ledger.flags) != 0 {
		t.Fatalf("long-standing member must not be flagged")
	}
}

func TestLeaveWithoutJoinRecord(t *testing.T) {
	f := newFixture(true)

	if got := f.detector.Handle(context.Background(), leave(testUser)); got != OutcomeLeftUntracked {
		t.Fatalf("leave: got %s", got)
	}
}

func TestDuplicateLeaveConsumesRecordOnce(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeFlagged {
		t.Fatalf("first leave: got %s", got)
	}
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeLeftUntracked {
		t.Fatalf("replayed leave: got %s", got)
	}
	if len(f.ledger.flags) != 1 || len(f.settings.actions) != 1 {
		t.Fatalf("replayed leave must not flag twice: flags=%d audit=%d", len(f.ledger.flags), len(f.settings.actions))
	}
}

func TestBanFailureIsAudited(t *testing.T) {
	f := newFixture(true)
	f.banner.err = errors.New("not enough rights")
	f.ledger.flags[pairKey{testSpace, testUser}] = struct{}{}

	if got := f.detector.Handle(context.Background(), join(testUser)); got != OutcomeBanFailed {
		t.Fatalf("join: got %s", got)
	}
	if f.settings.stats[enums.StatBans] != 0 {
		t.Fatalf("failed ban must not be counted")
	}
	if len(f.settings.actions) != 1 || f.settings.actions[0] != enums.AuditActionError {
		t.Fatalf("expected error audit, got %v", f.settings.actions)
	}
}

func TestFlagFailureReported(t *testing.T) {
	f := newFixture(true)
	f.ledger.flagErr = errors.New("db down")
	ctx := context.Background()

	f.detector.Handle(ctx, join(testUser))
	f.clock.Advance(time.Minute)
	if got := f.detector.Handle(ctx, leave(testUser)); got != OutcomeFlagFailed {
		t.Fatalf("leave: got %s", got)
	}
	if len(f.settings.actions) != 0 {
		t.Fatalf("no flag audit expected on failure")
	}
}

func TestInvalidUpdateIsIgnored(t *testing.T) {
	f := newFixture(true)
	update := join(testUser)
	update.SpaceKind = enums.SpaceKindPrivate

	if got := f.detector.Handle(context.Background(), update); got != OutcomeIgnored {
		t.Fatalf("private update: got %s", got)
	}
	if len(f.settings.stats) != 0 {
		t.Fatalf("private updates must not be counted")
	}
}
