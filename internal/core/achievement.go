package core

const (
	AchievementFirstEntry   AchievementID = "first_entry"
	AchievementStreak7      AchievementID = "streak_7"
	AchievementStreak30     AchievementID = "streak_30"
	AchievementStreak90     AchievementID = "streak_90"
	AchievementSuperSaver   AchievementID = "super_saver"
	AchievementBudgetMaster AchievementID = "budget_master"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	AchievementID string

	Theme string

	Achievement struct {
		ID          AchievementID `json:"id"`
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Icon        string        `json:"icon"`
	}
)

var achievements = []Achievement{
	{ID: AchievementFirstEntry, Name: "First Step", Description: "Record your first entry", Icon: "sprout"},
	{ID: AchievementStreak7, Name: "Week Warrior", Description: "Track for 7 days in a row", Icon: "flame"},
	{ID: AchievementStreak30, Name: "Monthly Master", Description: "Track for 30 days in a row", Icon: "calendar"},
	{ID: AchievementStreak90, Name: "Habit Hero", Description: "Track for 90 days in a row", Icon: "trophy"},
	{ID: AchievementSuperSaver, Name: "Super Saver", Description: "Save at least 20% of your income in a month", Icon: "piggy-bank"},
	{ID: AchievementBudgetMaster, Name: "Budget Master", Description: "Stay within budget for 3 consecutive months", Icon: "target"},
}

// Achievements returns the fixed achievement definitions.
func Achievements() []Achievement {
	return append([]Achievement(nil), achievements...)
}

func (id AchievementID) IsValid() bool {
	for _, a := range achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}
