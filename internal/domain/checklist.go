package domain

// ChecklistItem is one evaluable question. Weight is the value of a "yes".
type ChecklistItem struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title"`
	Weight   float64 `json:"weight" validate:"gt=0"`
	Critical bool    `json:"critical"` // informational only
}

// ChecklistSection groups items; it has no scoring semantics of its own.
type ChecklistSection struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items" validate:"dive"`
}

// ChecklistCategory is the unit totals are aggregated over (one report row).
type ChecklistCategory struct {
	ID       string             `json:"id"`
	Title    string             `json:"title" validate:"required"`
	Sections []ChecklistSection `json:"sections" validate:"dive"`
}

// Checklist is the static taxonomy loaded once per session.
type Checklist struct {
	ID         string              `json:"id" validate:"required"`
	Title      string              `json:"title"`
	Categories []ChecklistCategory `json:"categories" validate:"required,dive"`
}

// Item looks up an item by id.
func (c Checklist) Item(itemID string) (ChecklistItem, bool) {
	for _, cat := range c.Categories {
		for _, sec := range cat.Sections {
			for _, item := range sec.Items {
				if item.ID == itemID {
					return item, true
				}
			}
		}
	}
	return ChecklistItem{}, false
}

// ItemRef locates an item in taxonomy order.
type ItemRef struct {
	CategoryIndex int    `json:"categoryIndex"`
	SectionIndex  int    `json:"sectionIndex"`
	ItemIndex     int    `json:"itemIndex"`
	CategoryID    string `json:"categoryId"`
	SectionID     string `json:"sectionId"`
	ItemID        string `json:"itemId"`
}
