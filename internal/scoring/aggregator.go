// Package scoring turns a checklist taxonomy and an answer mapping into
// per-category results, an overall total and answer progress. Every function
// is pure and safe for concurrent use.
package scoring

import (
	"math"

	"oc-checklist-service/internal/domain"
)

// Percent returns earned as a percentage of rate, or 0 when rate is 0.
func Percent(earned, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return earned / rate * 100
}

// CategoryResult scores one category. Answers for items outside the category
// are ignored; missing or malformed answers leave the item unanswered.
func CategoryResult(category domain.ChecklistCategory, answers domain.Answers) domain.CategoryResult {
	return categoryResult(defaultRanker, category, answers)
}

// Overall scores every category and appends the total row.
func Overall(categories []domain.ChecklistCategory, answers domain.Answers) domain.Report {
	return defaultRanker.Overall(categories, answers)
}

// CategoryResult is like the package-level CategoryResult with r's thresholds.
func (r Ranker) CategoryResult(category domain.ChecklistCategory, answers domain.Answers) domain.CategoryResult {
	return categoryResult(r, category, answers)
}

// Overall is like the package-level Overall with r's thresholds.
func (r Ranker) Overall(categories []domain.ChecklistCategory, answers domain.Answers) domain.Report {
	rows := make([]domain.CategoryResult, 0, len(categories))
	total := domain.CategoryResult{Title: "Total"}
	for _, category := range categories {
		row := categoryResult(r, category, answers)
		rows = append(rows, row)

		total.Rate += row.Rate
		total.Earned += row.Earned
		total.Missed += row.Missed
		total.Yes += row.Yes
		total.No += row.No
		total.NA += row.NA
	}
	total.Percent = Percent(total.Earned, total.Rate)
	total.Rank = r.Rank(total.Percent)
	return domain.Report{Rows: rows, Total: total}
}

func categoryResult(r Ranker, category domain.ChecklistCategory, answers domain.Answers) domain.CategoryResult {
	res := domain.CategoryResult{Title: category.Title}
	for _, section := range category.Sections {
		for _, item := range section.Items {
			res.Rate += item.Weight
			switch answers[item.ID] {
			case domain.AnswerYes:
				res.Yes++
				res.Earned += item.Weight
			case domain.AnswerNo:
				res.No++
				res.Missed += item.Weight
			case domain.AnswerNA:
				res.NA++
			}
		}
	}
	res.Percent = Percent(res.Earned, res.Rate)
	res.Rank = r.Rank(res.Percent)
	return res
}

// ComputeProgress counts taxonomy items that have any entry in answers.
// Keys for unknown items are not counted.
func ComputeProgress(categories []domain.ChecklistCategory, answers domain.Answers) domain.Progress {
	var p domain.Progress
	for _, category := range categories {
		for _, section := range category.Sections {
			for _, item := range section.Items {
				p.TotalQuestions++
				if _, ok := answers[item.ID]; ok {
					p.AnsweredCount++
				}
			}
		}
	}
	if p.TotalQuestions > 0 {
		p.ProgressPercent = int(math.Round(float64(p.AnsweredCount) / float64(p.TotalQuestions) * 100))
	}
	return p
}

// FirstUnanswered returns the first item in category, section, item order
// with no entry in answers.
func FirstUnanswered(categories []domain.ChecklistCategory, answers domain.Answers) (domain.ItemRef, bool) {
	for ci, category := range categories {
		for si, section := range category.Sections {
			for ii, item := range section.Items {
				if _, ok := answers[item.ID]; ok {
					continue
				}
				return domain.ItemRef{
					CategoryIndex: ci,
					SectionIndex:  si,
					ItemIndex:     ii,
					CategoryID:    category.ID,
					SectionID:     section.ID,
					ItemID:        item.ID,
				}, true
			}
		}
	}
	return domain.ItemRef{}, false
}
