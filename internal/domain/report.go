package domain

// Rank is the qualitative label derived from percent of rate earned.
type Rank string

const (
	RankSAT Rank = "SAT"
	RankOT  Rank = "Đạt yêu cầu (OT)"
	RankBT  Rank = "Không đạt (BT)"
	RankSBT Rank = "Kém (SBT)"
)

// Severity orders ranks from worst (0) to best (3). Unknown ranks are -1.
func (r Rank) Severity() int {
	switch r {
	case RankSBT:
		return 0
	case RankBT:
		return 1
	case RankOT:
		return 2
	case RankSAT:
		return 3
	default:
		return -1
	}
}

// CategoryResult is one report row. It is derived, never persisted on its own.
type CategoryResult struct {
	Title   string  `json:"title"`
	Rate    float64 `json:"rate"`
	Yes     int     `json:"yes"`
	No      int     `json:"no"`
	NA      int     `json:"na"`
	Earned  float64 `json:"earned"`
	Missed  float64 `json:"missed"`
	Percent float64 `json:"percent"`
	Rank    Rank    `json:"rank"`
}

// Report holds one row per category plus the overall total row.
type Report struct {
	ChecklistID string           `json:"checklistId,omitempty"`
	Rows        []CategoryResult `json:"rows"`
	Total       CategoryResult   `json:"total"`
}

// Progress tracks how much of a checklist has been answered.
type Progress struct {
	TotalQuestions  int `json:"totalQuestions"`
	AnsweredCount   int `json:"answeredCount"`
	ProgressPercent int `json:"progressPercent"`
}

// Complete reports whether every question has an answer.
func (p Progress) Complete() bool {
	return p.AnsweredCount >= p.TotalQuestions
}
