// Package qsc models QSC evaluation forms built from heterogeneous elements
// and converts them into scoreable checklists.
package qsc

import (
	"encoding/json"
	"fmt"

	"oc-checklist-service/internal/domain"
)

// Kind discriminates form elements on the wire.
type Kind string

const (
	KindTitle       Kind = "title"
	KindDescription Kind = "description"
	KindMedia       Kind = "media"
	KindQuestion    Kind = "question"
)

// Element is one of Title, Description, Media or Question.
type Element interface {
	Kind() Kind
	isElement()
}

// Title is a heading shown inside a section.
type Title struct {
	Text string `json:"text"`
}

// Description is free text shown to the evaluator.
type Description struct {
	Content string `json:"content"`
}

// Media is a reference image or video.
type Media struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Question is a scored yes/no/na criterion.
type Question struct {
	ID       string  `json:"id"`
	Prompt   string  `json:"prompt"`
	Weight   float64 `json:"weight"`
	Critical bool    `json:"critical,omitempty"`
}

func (Title) Kind() Kind       { return KindTitle }
func (Description) Kind() Kind { return KindDescription }
func (Media) Kind() Kind       { return KindMedia }
func (Question) Kind() Kind    { return KindQuestion }

func (Title) isElement()       {}
func (Description) isElement() {}
func (Media) isElement()       {}
func (Question) isElement()    {}

// Section is an ordered list of elements under a heading.
type Section struct {
	ID       string
	Title    string
	Elements []Element
}

// Form is a QSC form as authored in the builder.
type Form struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

type wireElement struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type wireSection struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Elements []wireElement `json:"elements"`
}

// MarshalJSON writes elements as {"kind": ..., "data": ...}.
func (s Section) MarshalJSON() ([]byte, error) {
	ws := wireSection{ID: s.ID, Title: s.Title, Elements: make([]wireElement, 0, len(s.Elements))}
	for _, el := range s.Elements {
		data, err := json.Marshal(el)
		if err != nil {
			return nil, err
		}
		ws.Elements = append(ws.Elements, wireElement{Kind: el.Kind(), Data: data})
	}
	return json.Marshal(ws)
}

// UnmarshalJSON decodes elements by their kind; unknown kinds are errors.
func (s *Section) UnmarshalJSON(data []byte) error {
	var ws wireSection
	if err := json.Unmarshal(data, &ws); err != nil {
		return err
	}
	s.ID = ws.ID
	s.Title = ws.Title
	s.Elements = make([]Element, 0, len(ws.Elements))
	for i, we := range ws.Elements {
		el, err := decodeElement(we)
		if err != nil {
			return fmt.Errorf("section %q element %d: %w", ws.ID, i, err)
		}
		s.Elements = append(s.Elements, el)
	}
	return nil
}

func decodeElement(we wireElement) (Element, error) {
	var el Element
	var err error
	switch we.Kind {
	case KindTitle:
		var t Title
		err = unmarshalData(we.Data, &t)
		el = t
	case KindDescription:
		var d Description
		err = unmarshalData(we.Data, &d)
		el = d
	case KindMedia:
		var m Media
		err = unmarshalData(we.Data, &m)
		el = m
	case KindQuestion:
		var q Question
		err = unmarshalData(we.Data, &q)
		el = q
	default:
		return nil, fmt.Errorf("unknown element kind %q", we.Kind)
	}
	if err != nil {
		return nil, err
	}
	return el, nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Questions returns every question in form order.
func (f Form) Questions() []Question {
	var out []Question
	for _, sec := range f.Sections {
		for _, el := range sec.Elements {
			if q, ok := el.(Question); ok {
				out = append(out, q)
			}
		}
	}
	return out
}

// Checklist converts the form into a scoreable taxonomy. Each form section
// becomes a category holding a single section; only questions become items.
func (f Form) Checklist() domain.Checklist {
	checklist := domain.Checklist{ID: f.ID, Title: f.Title}
	for _, sec := range f.Sections {
		category := domain.ChecklistCategory{ID: sec.ID, Title: sec.Title}
		items := domain.ChecklistSection{ID: sec.ID, Title: sec.Title}
		heading := ""
		for _, el := range sec.Elements {
			switch el := el.(type) {
			case Title:
				heading = el.Text
			case Description, Media:
				// presentational only
			case Question:
				title := el.Prompt
				if heading != "" {
					title = heading + ": " + el.Prompt
				}
				items.Items = append(items.Items, domain.ChecklistItem{
					ID:       el.ID,
					Title:    title,
					Weight:   el.Weight,
					Critical: el.Critical,
				})
			default:
				panic(fmt.Sprintf("qsc: unhandled element %T", el))
			}
		}
		category.Sections = []domain.ChecklistSection{items}
		checklist.Categories = append(checklist.Categories, category)
	}
	return checklist
}
