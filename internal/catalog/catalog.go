// Package catalog provides the default item pool new rooms start with. The
// pool is static reference data; the engine only sees []models.Item.
package catalog

import "github.com/draftday/draftroom/internal/models"

// DefaultPool returns a copy of the built-in item pool.
func DefaultPool() []models.Item {
	return append([]models.Item(nil), defaultItems...)
}

var defaultItems = []models.Item{
	{ID: 1, Name: "Virat Kohli", Role: "Batsman", Country: "India"},
	{ID: 2, Name: "Rohit Sharma", Role: "Batsman", Country: "India"},
	{ID: 3, Name: "Jasprit Bumrah", Role: "Bowler", Country: "India"},
	{ID: 4, Name: "Ravindra Jadeja", Role: "All-rounder", Country: "India"},
	{ID: 5, Name: "KL Rahul", Role: "Wicket-keeper", Country: "India"},
	{ID: 6, Name: "Steve Smith", Role: "Batsman", Country: "Australia"},
	{ID: 7, Name: "David Warner", Role: "Batsman", Country: "Australia"},
	{ID: 8, Name: "Pat Cummins", Role: "Bowler", Country: "Australia"},
	{ID: 9, Name: "Mitchell Starc", Role: "Bowler", Country: "Australia"},
	{ID: 10, Name: "Glenn Maxwell", Role: "All-rounder", Country: "Australia"},
	{ID: 11, Name: "Joe Root", Role: "Batsman", Country: "England"},
	{ID: 12, Name: "Ben Stokes", Role: "All-rounder", Country: "England"},
	{ID: 13, Name: "Jos Buttler", Role: "Wicket-keeper", Country: "England"},
	{ID: 14, Name: "James Anderson", Role: "Bowler", Country: "England"},
	{ID: 15, Name: "Jofra Archer", Role: "Bowler", Country: "England"},
	{ID: 16, Name: "Kane Williamson", Role: "Batsman", Country: "New Zealand"},
	{ID: 17, Name: "Trent Boult", Role: "Bowler", Country: "New Zealand"},
	{ID: 18, Name: "Tim Southee", Role: "Bowler", Country: "New Zealand"},
	{ID: 19, Name: "Devon Conway", Role: "Batsman", Country: "New Zealand"},
	{ID: 20, Name: "Babar Azam", Role: "Batsman", Country: "Pakistan"},
	{ID: 21, Name: "Shaheen Afridi", Role: "Bowler", Country: "Pakistan"},
	{ID: 22, Name: "Mohammad Rizwan", Role: "Wicket-keeper", Country: "Pakistan"},
	{ID: 23, Name: "Shadab Khan", Role: "All-rounder", Country: "Pakistan"},
	{ID: 24, Name: "Quinton de Kock", Role: "Wicket-keeper", Country: "South Africa"},
	{ID: 25, Name: "Kagiso Rabada", Role: "Bowler", Country: "South Africa"},
	{ID: 26, Name: "Aiden Markram", Role: "Batsman", Country: "South Africa"},
	{ID: 27, Name: "Shakib Al Hasan", Role: "All-rounder", Country: "Bangladesh"},
	{ID: 28, Name: "Rashid Khan", Role: "Bowler", Country: "Afghanistan"},
	{ID: 29, Name: "Sikandar Raza", Role: "All-rounder", Country: "Zimbabwe"},
	{ID: 30, Name: "Nicholas Pooran", Role: "Wicket-keeper", Country: "West Indies"},
}
