package service

import (
    "math"
    "sort"
    "time"
)

// isoDate is the layout of the calendar-day keys used by the habit
// log queries ("logged_date" column values).
const isoDate = "2006-01-02"

func dateKey(t time.Time) string { return t.Format(isoDate) }

// dailyStreak counts consecutive days with at least target
// completions, ending today or yesterday. A day without logs today
// does not break the streak until tomorrow.
func dailyStreak(logs map[string]int, today time.Time, target int) int {
    if target < 1 {
        target = 1
    }
    day := today
    if logs[dateKey(day)] < target {
        day = day.AddDate(0, 0, -1)
    }
    streak := 0
    for logs[dateKey(day)] >= target {
        streak++
        day = day.AddDate(0, 0, -1)
    }
    return streak
}

// rollingStreak counts consecutive rolling windows of windowDays
// days, ending today, in which at least target completions were
// logged. Weekly habits use a 7-day window, monthly 30, custom
// habits their configured period.
func rollingStreak(logs map[string]int, today time.Time, windowDays, target int) int {
    if windowDays < 1 {
        return 0
    }
    if target < 1 {
        target = 1
    }
    streak := 0
    windowEnd := today
    for {
        completions := 0
        for i := 0; i < windowDays; i++ {
            completions += logs[dateKey(windowEnd.AddDate(0, 0, -i))]
        }
        if completions < target {
            break
        }
        streak++
        windowEnd = windowEnd.AddDate(0, 0, -windowDays)
    }
    return streak
}

// longestDailyStreak finds the longest run of consecutive days
// meeting the target anywhere in history. Only daily habits track a
// longest streak; the rolling frequencies report zero.
func longestDailyStreak(logs map[string]int, target int) int {
    if target < 1 {
        target = 1
    }
    dates := make([]time.Time, 0, len(logs))
    for k, n := range logs {
        if n < target {
            continue
        }
        d, err := time.Parse(isoDate, k)
        if err != nil {
            continue
        }
        dates = append(dates, d)
    }
    sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

    maxStreak, cur := 0, 0
    var prev time.Time
    for _, d := range dates {
        if cur == 0 || prev.Sub(d) == 24*time.Hour {
            cur++
        } else {
            cur = 1
        }
        if cur > maxStreak {
            maxStreak = cur
        }
        prev = d
    }
    return maxStreak
}

// completionRate returns the percentage of the last `days` days on
// which the target was met, rounded to one decimal.
func completionRate(logs map[string]int, today time.Time, days, target int) float64 {
    if days < 1 {
        return 0
    }
    if target < 1 {
        target = 1
    }
    successful := 0
    for i := 0; i < days; i++ {
        if logs[dateKey(today.AddDate(0, 0, -i))] >= target {
            successful++
        }
    }
    return math.Round(float64(successful)/float64(days)*1000) / 10
}
