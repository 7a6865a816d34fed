package service

import (
    "context"
    "time"

    "github.com/google/uuid"

    "github.com/unfust/unfust-server/internal/model"
)

// XP accounting: every log is worth a base amount plus the current
// streak, and the level grows every xpPerLevel points.
const (
    xpPerLog   = 10
    xpPerLevel = 500
)

// HabitService implements the gamified habit tracker: CRUD over
// habits, completion logging with XP awards, and derived stats
// (streaks, completion rate, summary).
type HabitService struct {
    habits HabitStore
    now    nowFunc
}

func NewHabitService(habits HabitStore) *HabitService {
    return &HabitService{
        habits: habits,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// HabitWithStats pairs a habit with its derived numbers.
type HabitWithStats struct {
    Habit *model.Habit
    Stats *model.HabitStats
}

// CreateHabitInput carries the writable habit fields. Zero values
// fall back to the dashboard defaults.
type CreateHabitInput struct {
    Name          string
    Emoji         string
    Color         string
    Category      string
    Description   string
    HabitType     string
    FrequencyType string
    TargetCount   int
    PeriodDays    int
}

// UpdateHabitInput uses pointers so absent fields are left alone.
type UpdateHabitInput struct {
    Name          *string
    Emoji         *string
    Color         *string
    Category      *string
    Description   *string
    HabitType     *string
    FrequencyType *string
    TargetCount   *int
    PeriodDays    *int
    SortOrder     *int
}

// HabitSummaryItem is one row of the dashboard summary.
type HabitSummaryItem struct {
    HabitID       string `json:"habit_id"`
    Name          string `json:"name"`
    Emoji         string `json:"emoji"`
    Color         string `json:"color"`
    TargetCount   int    `json:"target_count"`
    TodayCount    int    `json:"today_count"`
    IsComplete    bool   `json:"is_complete"`
    CurrentStreak int    `json:"current_streak"`
}

// HabitSummary is the aggregate the dashboard widget renders.
type HabitSummary struct {
    TotalHabits    int                `json:"total_habits"`
    CompletedToday int                `json:"completed_today"`
    BestStreak     int                `json:"best_streak"`
    UserLevel      int                `json:"user_level"`
    UserXP         int                `json:"user_xp"`
    Habits         []HabitSummaryItem `json:"habits"`
}

// List returns all active habits of a user with computed stats.
func (s *HabitService) List(ctx context.Context, userID string) ([]HabitWithStats, error) {
    habits, err := s.habits.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    out := make([]HabitWithStats, 0, len(habits))
    for _, h := range habits {
        stats, err := s.computeStats(ctx, h)
        if err != nil {
            return nil, err
        }
        out = append(out, HabitWithStats{Habit: h, Stats: stats})
    }
    return out, nil
}

// Get returns one active habit with stats, or repository.ErrNotFound.
func (s *HabitService) Get(ctx context.Context, id, userID string) (*HabitWithStats, error) {
    h, err := s.habits.Get(ctx, id, userID)
    if err != nil {
        return nil, err
    }
    stats, err := s.computeStats(ctx, h)
    if err != nil {
        return nil, err
    }
    return &HabitWithStats{Habit: h, Stats: stats}, nil
}

// Create inserts a habit at the end of the user's list.
func (s *HabitService) Create(ctx context.Context, userID string, in CreateHabitInput) (*HabitWithStats, error) {
    maxOrder, err := s.habits.MaxSortOrder(ctx, userID)
    if err != nil {
        return nil, err
    }
    h := &model.Habit{
        ID:            uuid.NewString(),
        UserID:        userID,
        Name:          in.Name,
        Emoji:         in.Emoji,
        Color:         in.Color,
        Category:      in.Category,
        Description:   in.Description,
        HabitType:     in.HabitType,
        FrequencyType: in.FrequencyType,
        TargetCount:   in.TargetCount,
        PeriodDays:    in.PeriodDays,
        IsActive:      true,
        SortOrder:     maxOrder + 1,
        CreatedAt:     s.now(),
    }
    if h.Emoji == "" {
        h.Emoji = "✨"
    }
    if h.Color == "" {
        h.Color = "#228be6"
    }
    if h.HabitType == "" {
        h.HabitType = model.HabitPositive
    }
    if h.FrequencyType == "" {
        h.FrequencyType = model.FrequencyDaily
    }
    if h.TargetCount < 1 {
        h.TargetCount = 1
    }
    if err := s.habits.Create(ctx, h); err != nil {
        return nil, err
    }
    return &HabitWithStats{Habit: h, Stats: &model.HabitStats{}}, nil
}

// Update patches the provided fields of an active habit.
func (s *HabitService) Update(ctx context.Context, id, userID string, in UpdateHabitInput) (*HabitWithStats, error) {
    h, err := s.habits.Get(ctx, id, userID)
    if err != nil {
        return nil, err
    }
    if in.Name != nil {
        h.Name = *in.Name
    }
    if in.Emoji != nil {
        h.Emoji = *in.Emoji
    }
    if in.Color != nil {
        h.Color = *in.Color
    }
    if in.Category != nil {
        h.Category = *in.Category
    }
    if in.Description != nil {
        h.Description = *in.Description
    }
    if in.HabitType != nil {
        h.HabitType = *in.HabitType
    }
    if in.FrequencyType != nil {
        h.FrequencyType = *in.FrequencyType
    }
    if in.TargetCount != nil && *in.TargetCount >= 1 {
        h.TargetCount = *in.TargetCount
    }
    if in.PeriodDays != nil {
        h.PeriodDays = *in.PeriodDays
    }
    if in.SortOrder != nil {
        h.SortOrder = *in.SortOrder
    }
    if err := s.habits.Update(ctx, h); err != nil {
        return nil, err
    }
    stats, err := s.computeStats(ctx, h)
    if err != nil {
        return nil, err
    }
    return &HabitWithStats{Habit: h, Stats: stats}, nil
}

// Delete soft-deletes a habit; logs are kept for history.
func (s *HabitService) Delete(ctx context.Context, id, userID string) (bool, error) {
    return s.habits.SoftDelete(ctx, id, userID)
}

// LogCompletion records one completion and awards XP: a base amount
// plus the streak the log just extended.
func (s *HabitService) LogCompletion(ctx context.Context, habitID, userID, loggedDate, notes string) (*model.HabitLog, error) {
    h, err := s.habits.Get(ctx, habitID, userID)
    if err != nil {
        return nil, err
    }
    if loggedDate == "" {
        loggedDate = dateKey(s.now())
    } else if _, err := time.Parse(isoDate, loggedDate); err != nil {
        return nil, err
    }
    l := &model.HabitLog{
        ID:         uuid.NewString(),
        HabitID:    h.ID,
        UserID:     userID,
        LoggedDate: loggedDate,
        Notes:      notes,
        CreatedAt:  s.now(),
    }
    if err := s.habits.InsertLog(ctx, l); err != nil {
        return nil, err
    }
    stats, err := s.computeStats(ctx, h)
    if err != nil {
        return nil, err
    }
    if err := s.habits.AddXP(ctx, userID, xpPerLog+stats.CurrentStreak); err != nil {
        return nil, err
    }
    return l, nil
}

// UndoLog removes a log entry. The XP it awarded is kept; taking
// points back for corrections felt punitive in the original design.
func (s *HabitService) UndoLog(ctx context.Context, logID, userID string) (bool, error) {
    return s.habits.DeleteLog(ctx, logID, userID)
}

// History lists a habit's logs between two ISO dates, inclusive.
func (s *HabitService) History(ctx context.Context, habitID, userID, start, end string) ([]*model.HabitLog, error) {
    return s.habits.LogsInRange(ctx, habitID, userID, start, end)
}

// Summary aggregates the whole tracker for the dashboard widget.
func (s *HabitService) Summary(ctx context.Context, userID string) (*HabitSummary, error) {
    withStats, err := s.List(ctx, userID)
    if err != nil {
        return nil, err
    }
    xp, err := s.habits.GetXP(ctx, userID)
    if err != nil {
        return nil, err
    }
    sum := &HabitSummary{
        TotalHabits: len(withStats),
        UserXP:      xp,
        UserLevel:   xp/xpPerLevel + 1,
        Habits:      make([]HabitSummaryItem, 0, len(withStats)),
    }
    for _, hs := range withStats {
        if hs.Stats.IsCompleteToday {
            sum.CompletedToday++
        }
        if hs.Stats.CurrentStreak > sum.BestStreak {
            sum.BestStreak = hs.Stats.CurrentStreak
        }
        sum.Habits = append(sum.Habits, HabitSummaryItem{
            HabitID:       hs.Habit.ID,
            Name:          hs.Habit.Name,
            Emoji:         hs.Habit.Emoji,
            Color:         hs.Habit.Color,
            TargetCount:   hs.Habit.TargetCount,
            TodayCount:    hs.Stats.TodayCount,
            IsComplete:    hs.Stats.IsCompleteToday,
            CurrentStreak: hs.Stats.CurrentStreak,
        })
    }
    return sum, nil
}

func (s *HabitService) computeStats(ctx context.Context, h *model.Habit) (*model.HabitStats, error) {
    logs, err := s.habits.LogsByDate(ctx, h.ID)
    if err != nil {
        return nil, err
    }
    today := s.now()
    total := 0
    for _, n := range logs {
        total += n
    }
    todayCount := logs[dateKey(today)]

    var current int
    switch h.FrequencyType {
    case model.FrequencyDaily:
        current = dailyStreak(logs, today, h.TargetCount)
    case model.FrequencyWeekly:
        current = rollingStreak(logs, today, 7, h.TargetCount)
    case model.FrequencyMonthly:
        current = rollingStreak(logs, today, 30, h.TargetCount)
    case model.FrequencyCustom:
        current = rollingStreak(logs, today, h.PeriodDays, h.TargetCount)
    }

    longest := 0
    if h.FrequencyType == model.FrequencyDaily {
        longest = longestDailyStreak(logs, h.TargetCount)
    }

    return &model.HabitStats{
        CurrentStreak:    current,
        LongestStreak:    longest,
        TotalCompletions: total,
        CompletionRate:   completionRate(logs, today, 30, h.TargetCount),
        TodayCount:       todayCount,
        IsCompleteToday:  todayCount >= h.TargetCount,
    }, nil
}
