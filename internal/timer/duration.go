package timer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)h`)
	minutesRe = regexp.MustCompile(`(\d+)m`)
	plainRe   = regexp.MustCompile(`^\d+$`)
)

// ParseDuration converts a human duration into total minutes. Accepted
// forms: "Xh Ym", "H:M", and plain minutes ("25").
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	hMatch := hoursRe.FindStringSubmatch(s)
	mMatch := minutesRe.FindStringSubmatch(s)
	if hMatch != nil && mMatch != nil {
		h, _ := strconv.Atoi(hMatch[1])
		m, _ := strconv.Atoi(mMatch[1])
		return h*60 + m, nil
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return h*60 + m, nil
	}

	if plainRe.MatchString(s) {
		m, _ := strconv.Atoi(s)
		return m, nil
	}

	return 0, fmt.Errorf("invalid duration %q", s)
}

// FormatDuration renders minutes as "Xh Ym" or "Ym".
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatTime renders a second count as MM:SS, or HH:MM:SS past an hour.
func FormatTime(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// SuggestedDuration is one preset study length.
type SuggestedDuration struct {
	Minutes     int    `json:"minutes"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func SuggestedDurations() []SuggestedDuration {
	return []SuggestedDuration{
		{25, "Pomodoro (25 min)", "Short focused session"},
		{45, "Standard (45 min)", "Balanced study time"},
		{50, "Deep Focus (50 min)", "Extended concentration"},
		{90, "Extended (90 min)", "Long study block"},
		{120, "Marathon (2 hours)", "Maximum focus"},
	}
}

// BreakTime suggests 5 minutes of break per completed pomodoro, with a
// 5-minute floor.
func BreakTime(studyMinutes int) int {
	pomodoros := studyMinutes / 25
	if pomodoros*5 < 5 {
		return 5
	}
	return pomodoros * 5
}
