package domain

// DefaultBoard returns the sample project shown when no stored board exists.
func DefaultBoard() *Board {
	return &Board{
		Weeks: DefaultWeeks,
		Lanes: []Lane{
			{ID: "marketing", Name: "Marketing"},
			{ID: "management", Name: "Management"},
			{ID: "webdesign", Name: "Web Design Team"},
		},
		Tasks: []Task{
			{ID: "suggest-changes", Name: "Suggest changes to website", Lane: "marketing", Start: 2, Duration: 1, Color: "#FF9800", Dependencies: []string{}},
			{ID: "evaluate-changes", Name: "Evaluate changes", Lane: "management", Start: 3, Duration: 1, Color: "#2196F3", Dependencies: []string{"suggest-changes"}},
			{ID: "check-changes", Name: "Check suggested changes", Lane: "webdesign", Start: 4, Duration: 1, Color: "#2196F3", Dependencies: []string{"evaluate-changes"}},
			{ID: "reevaluate-changes", Name: "Re-evaluate changes", Lane: "management", Start: 6, Duration: 1, Color: "#2196F3", Dependencies: []string{"check-changes"}},
			{ID: "evaluate-new-changes", Name: "Evaluate new changes", Lane: "management", Start: 7, Duration: 1, Color: "#2196F3", Dependencies: []string{"reevaluate-changes"}},
			{ID: "implement-changes", Name: "Implement changes to website", Lane: "marketing", Start: 9, Duration: 2, Color: "#FF9800", Dependencies: []string{"evaluate-new-changes"}},
		},
	}
}
