package syncjob

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BookingEvent is the normalized calendar shape of a booking record.
type BookingEvent struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	Destination   string  `json:"destination"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	Amount        float64 `json:"amount"`
	CustomerPhone string  `json:"customerPhone"`
}

// MaintenanceEvent is the normalized calendar shape of a maintenance record.
type MaintenanceEvent struct {
	ID          string  `json:"id"`
	Vehicle     string  `json:"vehicle"`
	ServiceType string  `json:"serviceType"`
	Details     string  `json:"details"`
	Cost        float64 `json:"cost"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Notes       string  `json:"notes"`
}

// workspace page shapes, only the property kinds the mapping reads
type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Number      *float64       `json:"number"`
	Date        *dateRange     `json:"date"`
	MultiSelect []selectOption `json:"multi_select"`
	Relation    []relationRef  `json:"relation"`
}

type richText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type selectOption struct {
	Name string `json:"name"`
}

type relationRef struct {
	ID string `json:"id"`
}

func parsePages(queryResult json.RawMessage) ([]page, error) {
	var parsed struct {
		Results []page `json:"results"`
	}
	if err := json.Unmarshal(queryResult, &parsed); err != nil {
		return nil, fmt.Errorf("parse query result: %w", err)
	}
	return parsed.Results, nil
}

func (p property) firstTitle() string {
	if len(p.Title) == 0 {
		return ""
	}
	return p.Title[0].Text.Content
}

func (p property) firstRichText() string {
	if len(p.RichText) == 0 {
		return ""
	}
	return p.RichText[0].Text.Content
}

func (p property) number() float64 {
	if p.Number == nil {
		return 0
	}
	return *p.Number
}

func (p property) multiSelectNames() string {
	names := make([]string, 0, len(p.MultiSelect))
	for _, option := range p.MultiSelect {
		names = append(names, option.Name)
	}
	return strings.Join(names, ", ")
}

func (p property) firstRelationID() string {
	if len(p.Relation) == 0 {
		return ""
	}
	return p.Relation[0].ID
}

func (p property) dateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

func (p property) dateEnd() string {
	if p.Date == nil {
		return ""
	}
	if p.Date.End != "" {
		return p.Date.End
	}
	return p.Date.Start
}

func bookingEventFromPage(bookingPage page) BookingEvent {
	props := bookingPage.Properties

	event := BookingEvent{
		ID:           bookingPage.ID,
		CustomerName: props["Contact"].firstTitle(),
		Destination:  props["Company/Org/Person"].firstRichText(),
		StartDate:    props["Dates"].dateStart(),
		EndDate:      props["Dates"].dateEnd(),
		Amount:       props["Amount"].number(),
	}
	if event.CustomerName == "" {
		event.CustomerName = "Unknown"
	}
	if event.Destination == "" {
		event.Destination = "Unknown"
	}
	if advance := props["Advance"].Number; advance != nil {
		event.CustomerPhone = strconv.FormatFloat(*advance, 'f', -1, 64)
	}
	return event
}

func maintenanceEventFromPage(maintenancePage page) MaintenanceEvent {
	props := maintenancePage.Properties

	event := MaintenanceEvent{
		ID:          maintenancePage.ID,
		Vehicle:     props["Vehicle"].firstRelationID(),
		ServiceType: props["Service Type"].multiSelectNames(),
		Details:     props["Details"].firstRichText(),
		Cost:        props["Cost"].number(),
		StartDate:   props["Service Dates"].dateStart(),
		EndDate:     props["Service Dates"].dateEnd(),
		Notes:       props["Notes"].firstRichText(),
	}
	if event.Vehicle == "" {
		event.Vehicle = "Unknown"
	}
	if event.ServiceType == "" {
		event.ServiceType = "Service"
	}
	if event.Details == "" {
		event.Details = "General Checkup"
	}
	if event.Notes == "" {
		event.Notes = props["Name"].firstTitle()
	}
	return event
}
