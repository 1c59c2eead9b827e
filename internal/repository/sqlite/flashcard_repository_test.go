package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/mindforge/internal/flashcard"
	"github.com/vytor/mindforge/internal/models"
	"github.com/vytor/mindforge/internal/repository"
	"github.com/vytor/mindforge/internal/repository/sqlite"
	"github.com/vytor/mindforge/internal/testutil"
)

type FlashcardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.FlashcardRepository
	ctx  context.Context
}

func (s *FlashcardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewFlashcardRepository(s.db)
	s.ctx = context.Background()
}

func (s *FlashcardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *FlashcardRepositorySuite) insert(c models.Flashcard) string {
	id, err := s.repo.Insert(s.ctx, c)
	s.Require().NoError(err)
	return id
}

func (s *FlashcardRepositorySuite) dueFilter(owner string, now time.Time) models.DueFilter {
	return models.DueFilter{OwnerID: owner, Now: now}
}

func (s *FlashcardRepositorySuite) TestInsertAndGet() {
	card := testutil.NewCard("alice", "What is the capital of Peru?")
	card.Topic = "geography"
	card.CollectionID = "latam"

	id := s.insert(card)
	s.NotEmpty(id)

	got, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal("alice", got.OwnerID)
	s.Equal("latam", got.CollectionID)
	s.Equal("geography", got.Topic)
	s.Equal(card.Front, got.Front)
	s.Equal(card.Back, got.Back)
	s.Equal(models.DefaultRepetitionCount, got.RepetitionCount)
	s.Equal(models.DefaultEaseFactor, got.EaseFactor)
	s.Equal(models.DefaultIntervalDays, got.IntervalDays)
	s.Nil(got.LastStudiedAt)
	s.True(testutil.Now.Equal(got.NextDueAt))
	s.EqualValues(0, got.Version)
}

func (s *FlashcardRepositorySuite) TestInsertKeepsExplicitID() {
	card := testutil.NewCard("alice", "q")
	card.ID = "card-1"

	s.Equal("card-1", s.insert(card))
}

func (s *FlashcardRepositorySuite) TestGetOtherOwnerIsNotFound() {
	id := s.insert(testutil.NewCard("alice", "q"))

	_, err := s.repo.Get(s.ctx, id, "bob")
	s.ErrorIs(err, repository.ErrCardNotFound)

	_, err = s.repo.Get(s.ctx, "missing", "alice")
	s.ErrorIs(err, repository.ErrCardNotFound)
}

func (s *FlashcardRepositorySuite) TestInsertBatch() {
	cards := []models.Flashcard{
		testutil.NewCard("alice", "one"),
		testutil.NewCard("alice", "two"),
		testutil.NewCard("alice", "three"),
	}

	ids, err := s.repo.InsertBatch(s.ctx, cards)
	s.Require().NoError(err)
	s.Len(ids, 3)

	count, err := s.repo.CountDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *FlashcardRepositorySuite) TestInsertBatchIsAtomic() {
	dup := testutil.NewCard("alice", "dup")
	dup.ID = "same"
	cards := []models.Flashcard{dup, dup}

	_, err := s.repo.InsertBatch(s.ctx, cards)
	s.Error(err)

	count, err := s.repo.CountDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *FlashcardRepositorySuite) TestListDueBoundaryIsInclusive() {
	due := testutil.NewCard("alice", "due exactly now")
	later := testutil.NewCard("alice", "due a second later")
	later.NextDueAt = testutil.Now.Add(time.Second)
	dueID := s.insert(due)
	s.insert(later)

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal(dueID, cards[0].ID)
}

func (s *FlashcardRepositorySuite) TestFarFutureCardIsNotDue() {
	longest := testutil.NewCard("alice", "scheduled at the interval cap")
	longest.NextDueAt = testutil.Now.AddDate(0, 0, flashcard.MaxIntervalDays)
	lastYear := testutil.NewCard("alice", "last four-digit year")
	lastYear.NextDueAt = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
	s.insert(longest)
	s.insert(lastYear)

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Empty(cards)

	count, err := s.repo.CountDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Zero(count)

	cards, err = s.repo.ListDue(s.ctx, s.dueFilter("alice", longest.NextDueAt))
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal(longest.Front, cards[0].Front)
}

func (s *FlashcardRepositorySuite) TestListDueReturnsExactlyTheDueCards() {
	offsets := []time.Duration{-48 * time.Hour, -time.Second, 0, time.Nanosecond, time.Hour, 30 * 24 * time.Hour}
	all := make([]models.Flashcard, 0, len(offsets))
	for i, off := range offsets {
		card := testutil.NewCard("alice", string(rune('a'+i)))
		card.NextDueAt = testutil.Now.Add(off)
		card.ID = s.insert(card)
		all = append(all, card)
	}

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)

	listed := map[string]bool{}
	for _, c := range cards {
		s.True(c.IsDue(testutil.Now), "listed card %s is not due", c.Front)
		listed[c.ID] = true
	}
	for _, c := range all {
		s.Equal(c.IsDue(testutil.Now), listed[c.ID], "card %s", c.Front)
	}
}

func (s *FlashcardRepositorySuite) TestListDueComparesInstantsNotZones() {
	lima, err := time.LoadLocation("America/Lima")
	s.Require().NoError(err)

	card := testutil.NewCard("alice", "q")
	card.NextDueAt = testutil.Now.In(lima)
	s.insert(card)

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Len(cards, 1)

	cards, err = s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now.Add(-time.Nanosecond).In(lima)))
	s.Require().NoError(err)
	s.Empty(cards)
}

func (s *FlashcardRepositorySuite) TestListDueIsOwnerScoped() {
	s.insert(testutil.NewCard("alice", "a"))
	s.insert(testutil.NewCard("bob", "b"))

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("bob", testutil.Now))
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal("bob", cards[0].OwnerID)
}

func (s *FlashcardRepositorySuite) TestListDueFilters() {
	spanish := testutil.NewCard("alice", "hola")
	spanish.CollectionID = "spanish"
	spanish.Topic = "greetings"
	verbs := testutil.NewCard("alice", "comer")
	verbs.CollectionID = "spanish"
	verbs.Topic = "verbs"
	french := testutil.NewCard("alice", "bonjour")
	french.CollectionID = "french"
	french.Topic = "greetings"
	s.insert(spanish)
	s.insert(verbs)
	s.insert(french)

	f := s.dueFilter("alice", testutil.Now)
	f.CollectionID = "spanish"
	cards, err := s.repo.ListDue(s.ctx, f)
	s.Require().NoError(err)
	s.Len(cards, 2)

	f.Topic = "greetings"
	cards, err = s.repo.ListDue(s.ctx, f)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal("hola", cards[0].Front)

	f = s.dueFilter("alice", testutil.Now)
	f.Topic = "greetings"
	count, err := s.repo.CountDue(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *FlashcardRepositorySuite) TestListDueOrderAndPaging() {
	ids := map[string]string{}
	for i, front := range []string{"c", "a", "b"} {
		card := testutil.NewCard("alice", front)
		card.NextDueAt = testutil.Now.Add(-time.Duration(i+1) * time.Hour)
		ids[front] = s.insert(card)
	}
	// Same due instant as "c"; ordering falls back to id.
	tieA := testutil.NewCard("alice", "tie")
	tieA.ID = "00000000-tie"
	tieA.NextDueAt = testutil.Now.Add(-time.Hour)
	s.insert(tieA)

	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("alice", testutil.Now))
	s.Require().NoError(err)
	s.Require().Len(cards, 4)
	s.Equal(ids["b"], cards[0].ID)
	s.Equal(ids["a"], cards[1].ID)
	s.Equal("00000000-tie", cards[2].ID)
	s.Equal(ids["c"], cards[3].ID)

	f := s.dueFilter("alice", testutil.Now)
	f.Limit = 2
	f.Offset = 1
	page, err := s.repo.ListDue(s.ctx, f)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(cards[1].ID, page[0].ID)
	s.Equal(cards[2].ID, page[1].ID)

	count, err := s.repo.CountDue(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(4, count)
}

func (s *FlashcardRepositorySuite) TestListDueEmptyIsNotNil() {
	cards, err := s.repo.ListDue(s.ctx, s.dueFilter("nobody", testutil.Now))
	s.Require().NoError(err)
	s.NotNil(cards)
	s.Empty(cards)
}

func (s *FlashcardRepositorySuite) TestUpdateSchedule() {
	id := s.insert(testutil.NewCard("alice", "q"))
	card, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)

	studied := testutil.Now.Add(time.Minute)
	card.RepetitionCount = 1
	card.EaseFactor = 260
	card.IntervalDays = 1
	card.LastStudiedAt = &studied
	card.NextDueAt = studied.AddDate(0, 0, 1)
	card.UpdatedAt = studied

	history := &models.ReviewHistory{Quality: 5, TimeSeconds: 4.5, ReviewedAt: studied}
	s.Require().NoError(s.repo.UpdateSchedule(s.ctx, *card, 0, history))

	got, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Equal(1, got.RepetitionCount)
	s.Equal(260, got.EaseFactor)
	s.Equal(1, got.IntervalDays)
	s.Require().NotNil(got.LastStudiedAt)
	s.True(studied.Equal(*got.LastStudiedAt))
	s.True(studied.AddDate(0, 0, 1).Equal(got.NextDueAt))
	s.EqualValues(1, got.Version)

	rows, err := s.repo.ReviewHistory(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(id, rows[0].FlashcardID)
	s.Equal(5, rows[0].Quality)
	s.InDelta(4.5, rows[0].TimeSeconds, 0.001)
	s.True(studied.Equal(rows[0].ReviewedAt))
}

func (s *FlashcardRepositorySuite) TestUpdateScheduleWithoutHistory() {
	id := s.insert(testutil.NewCard("alice", "q"))
	card, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateSchedule(s.ctx, *card, 0, nil))

	rows, err := s.repo.ReviewHistory(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *FlashcardRepositorySuite) TestUpdateScheduleStaleVersionConflicts() {
	id := s.insert(testutil.NewCard("alice", "q"))
	card, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateSchedule(s.ctx, *card, 0, nil))

	card.IntervalDays = 6
	err = s.repo.UpdateSchedule(s.ctx, *card, 0, &models.ReviewHistory{Quality: 4, ReviewedAt: testutil.Now})
	s.ErrorIs(err, repository.ErrConflict)

	got, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Equal(1, got.IntervalDays)

	rows, err := s.repo.ReviewHistory(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(rows, "history must roll back with the failed update")
}

func (s *FlashcardRepositorySuite) TestUpdateScheduleMissingCard() {
	card := testutil.NewCard("alice", "q")
	card.ID = "missing"

	err := s.repo.UpdateSchedule(s.ctx, card, 0, nil)
	s.ErrorIs(err, repository.ErrCardNotFound)

	id := s.insert(testutil.NewCard("alice", "q"))
	card.ID = id
	card.OwnerID = "bob"
	err = s.repo.UpdateSchedule(s.ctx, card, 0, nil)
	s.ErrorIs(err, repository.ErrCardNotFound)
}

func (s *FlashcardRepositorySuite) TestDeleteCascadesHistory() {
	id := s.insert(testutil.NewCard("alice", "q"))
	card, err := s.repo.Get(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Require().NoError(s.repo.UpdateSchedule(s.ctx, *card, 0, &models.ReviewHistory{Quality: 3, ReviewedAt: testutil.Now}))

	s.ErrorIs(s.repo.Delete(s.ctx, id, "bob"), repository.ErrCardNotFound)
	s.Require().NoError(s.repo.Delete(s.ctx, id, "alice"))

	_, err = s.repo.Get(s.ctx, id, "alice")
	s.ErrorIs(err, repository.ErrCardNotFound)

	var n int
	s.Require().NoError(s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM review_history WHERE flashcard_id = ?`, id).Scan(&n))
	s.Zero(n)

	s.ErrorIs(s.repo.Delete(s.ctx, id, "alice"), repository.ErrCardNotFound)
}

func (s *FlashcardRepositorySuite) TestLegacyNullScheduleReadsAsZero() {
	_, err := s.db.ExecContext(s.ctx, `
INSERT INTO flashcards (id, owner_id, front, back, repetition_count, ease_factor, interval_days, next_due_at)
VALUES (?, ?, ?, ?, NULL, NULL, NULL, ?)
`, "legacy", "alice", "old", "card", testutil.Now.Add(-time.Hour))
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, "legacy", "alice")
	s.Require().NoError(err)
	s.Zero(got.RepetitionCount)
	s.Zero(got.EaseFactor)
	s.Zero(got.IntervalDays)
	s.Empty(got.CollectionID)
	s.Empty(got.Topic)
}

func TestFlashcardRepositorySuite(t *testing.T) {
	suite.Run(t, new(FlashcardRepositorySuite))
}
