package challenge

import "github.com/prem-prasad1710/ritualos/internal/model"

// Catalog is the set of challenges every installation starts with.
var Catalog = []model.Challenge{
	{Title: "7-Day Morning Reset", Description: "Complete your morning ritual every day for a week", DurationDays: 7, Points: 100, Category: "Morning"},
	{Title: "14-Day Focus Sprint", Description: "Do one deep-focus block a day for two weeks", DurationDays: 14, Points: 200, Category: "Focus"},
	{Title: "21-Day Mindfulness", Description: "Meditate daily for three weeks", DurationDays: 21, Points: 300, Category: "Mindfulness"},
	{Title: "30-Day Movement", Description: "Move your body every day for a month", DurationDays: 30, Points: 500, Category: "Fitness"},
}
