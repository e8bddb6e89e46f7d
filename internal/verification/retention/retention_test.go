package retention

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"docverify/internal/verification/models"
	"docverify/internal/verification/store/files"
	"docverify/internal/verification/store/lock"
	"docverify/internal/verification/store/schedule"
	"docverify/pkg/domain"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/compliance"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/platform/tx"
	"docverify/pkg/requestcontext"
)

func TestScheduleFor(t *testing.T) {
	submitted := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rec := models.VerificationRecord{
		VerificationID: domain.NewVerificationID(),
		ApplicationID:  "APP-1",
		AttemptDir:     "APP-1_20260101_100000",
		SubmittedAt:    submitted,
		Files: map[models.Slot]models.StoredFile{
			models.SlotIDBack:  {Path: "APP-1_20260101_100000/id_back_b.jpg"},
			models.SlotIDFront: {Path: "APP-1_20260101_100000/id_front_a.jpg"},
		},
	}

	sch := ScheduleFor(rec, 0)

	assert.Equal(t, submitted.Add(72*time.Hour), sch.DeleteAfter)
	assert.Equal(t, []string{"APP-1_20260101_100000/id_front_a.jpg", "APP-1_20260101_100000/id_back_b.jpg"}, sch.Paths)
	assert.Equal(t, rec.AttemptDir, sch.AttemptDir)
	assert.Nil(t, sch.PurgedAt)

	assert.Equal(t, submitted.Add(time.Hour), ScheduleFor(rec, time.Hour).DeleteAfter)
}

type SweeperSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	files     *files.InMemoryStore
	schedules *schedule.InMemoryStore
	audit     *auditmemory.InMemoryStore
	sweeper   *Sweeper
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	s.now = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.files = files.NewInMemory()
	s.schedules = schedule.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()

	var err error
	s.sweeper, err = NewSweeper(s.schedules, s.files, lock.NewInMemory(), tx.NewLocalRunner(), compliance.New(s.audit))
	s.Require().NoError(err)
}

func (s *SweeperSuite) seed(dir string, deleteAfter time.Time) models.DeletionSchedule {
	return s.seedFile(dir+"/id_front_x.jpg", dir, deleteAfter)
}

func (s *SweeperSuite) seedFile(path, dir string, deleteAfter time.Time) models.DeletionSchedule {
	s.Require().NoError(s.files.Put(s.ctx, path, []byte("img")))
	sch := models.DeletionSchedule{
		VerificationID: domain.NewVerificationID(),
		ApplicationID:  "APP-9",
		AccountID:      domain.AccountID(uuid.New()),
		AttemptDir:     dir,
		Paths:          []string{path},
		DeleteAfter:    deleteAfter,
	}
	s.Require().NoError(s.schedules.Schedule(s.ctx, sch))
	return sch
}

func (s *SweeperSuite) TestPurgesOnlyDueAttempts() {
	due := s.seed("APP-9_20260301_120000", s.now.Add(-time.Minute))
	pending := s.seed("APP-9_20260305_110000", s.now.Add(71*time.Hour))

	n, err := s.sweeper.SweepOnce(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, n)
	_, err = s.files.Get(s.ctx, due.Paths[0])
	s.Error(err)
	_, err = s.files.Get(s.ctx, pending.Paths[0])
	s.NoError(err)

	got, ok := s.schedules.Get(due.VerificationID)
	s.Require().True(ok)
	s.Require().NotNil(got.PurgedAt)
	s.Equal(s.now, *got.PurgedAt)

	events, err := s.audit.ListByAction(s.ctx, audit.EventRetentionPurged)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(due.VerificationID.String(), events[0].VerificationID)
	s.Equal(audit.CategoryCompliance, events[0].Category)
}

func (s *SweeperSuite) TestPurgeKeepsSameSecondSibling() {
	dir := "APP-9_20260301_120000"
	due := s.seedFile(dir+"/id_front_aaaa.jpg", dir, s.now.Add(-time.Minute))
	sibling := s.seedFile(dir+"/id_front_bbbb.jpg", dir, s.now.Add(time.Hour))

	n, err := s.sweeper.SweepOnce(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, n)
	_, err = s.files.Get(s.ctx, due.Paths[0])
	s.Error(err)
	data, err := s.files.Get(s.ctx, sibling.Paths[0])
	s.Require().NoError(err)
	s.Equal([]byte("img"), data)
}

func (s *SweeperSuite) TestSecondSweepIsNoop() {
	s.seed("APP-9_20260301_120000", s.now.Add(-time.Hour))

	_, err := s.sweeper.SweepOnce(s.ctx)
	s.Require().NoError(err)
	n, err := s.sweeper.SweepOnce(s.ctx)

	s.Require().NoError(err)
	s.Zero(n)
	events, err := s.audit.ListByAction(s.ctx, audit.EventRetentionPurged)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *SweeperSuite) TestNewRequiresDependencies() {
	_, err := NewSweeper(nil, s.files, lock.NewInMemory(), tx.NewLocalRunner(), compliance.New(s.audit))
	s.Error(err)
}
