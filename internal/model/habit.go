package model

import "time"

// Habit frequency types. They control how the habit's streak is
// computed: daily streaks count consecutive days, the others count
// consecutive rolling windows of the given length.
const (
    FrequencyDaily   = "daily"
    FrequencyWeekly  = "weekly"
    FrequencyMonthly = "monthly"
    FrequencyCustom  = "custom"
)

// Habit kinds: a positive habit is something to do, a negative one
// is something to avoid.
const (
    HabitPositive = "positive"
    HabitNegative = "negative"
)

// Habit represents a tracked habit in the `habits` table. Habits
// are soft-deleted by clearing IsActive so past logs stay intact.
//
// Fields:
//  ID            – UUID primary key.
//  UserID        – owner of the habit.
//  Name          – display name.
//  Emoji         – decorative emoji shown on the dashboard.
//  Color         – hex color for the habit card.
//  Category      – optional grouping label.
//  Description   – optional free text.
//  HabitType     – "positive" or "negative".
//  FrequencyType – "daily", "weekly", "monthly" or "custom".
//  TargetCount   – completions required per day/window.
//  PeriodDays    – window length for the "custom" frequency.
//  IsActive      – cleared on soft delete.
//  SortOrder     – display ordering within the user's list.
//  CreatedAt     – timestamp of creation.
type Habit struct {
    ID            string    // habits.id
    UserID        string    // habits.user_id
    Name          string    // habits.name
    Emoji         string    // habits.emoji
    Color         string    // habits.color
    Category      string    // habits.category (nullable, empty when unset)
    Description   string    // habits.description (nullable, empty when unset)
    HabitType     string    // habits.habit_type
    FrequencyType string    // habits.frequency_type
    TargetCount   int       // habits.target_count
    PeriodDays    int       // habits.period_days (0 unless frequency is custom)
    IsActive      bool      // habits.is_active
    SortOrder     int       // habits.sort_order
    CreatedAt     time.Time // habits.created_at
}

// HabitLog records one completion of a habit on a calendar day.
//
// Fields:
//  ID         – UUID primary key.
//  HabitID    – habit that was completed.
//  UserID     – owner (duplicated for cheap ownership checks).
//  LoggedDate – calendar day of the completion ("2006-01-02").
//  Notes      – optional free text.
//  CreatedAt  – timestamp of creation.
type HabitLog struct {
    ID         string    // habit_logs.id
    HabitID    string    // habit_logs.habit_id
    UserID     string    // habit_logs.user_id
    LoggedDate string    // habit_logs.logged_date, ISO date
    Notes      string    // habit_logs.notes (nullable, empty when unset)
    CreatedAt  time.Time // habit_logs.created_at
}

// HabitStats carries the derived numbers for one habit. It is
// computed on read and never persisted.
type HabitStats struct {
    CurrentStreak    int     `json:"current_streak"`
    LongestStreak    int     `json:"longest_streak"`
    TotalCompletions int     `json:"total_completions"`
    CompletionRate   float64 `json:"completion_rate"`
    TodayCount       int     `json:"today_count"`
    IsCompleteToday  bool    `json:"is_complete_today"`
}
