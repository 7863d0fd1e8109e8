// ABOUTME: Data models for the stakeholder directory
// ABOUTME: Defines Person, Account, LogEntry, relation updates and the fixed enumerations
package models

import (
	"strings"
	"time"
)

// Sentiment values.
const (
	SentimentHigh    = "High"
	SentimentMedium  = "Medium"
	SentimentLow     = "Low"
	SentimentUnknown = "Unknown"
)

// Awareness values.
const (
	AwarenessHold      = "Hold"
	AwarenessEmailOnly = "Email only"
	AwarenessLow       = "Low"
	AwarenessGoAhead   = "Go Ahead"
	AwarenessUnknown   = "Unknown"
)

// Role tags describing a stakeholder's position in a deal.
const (
	RoleTechChampion     = "techChampion"
	RoleBusinessChampion = "businessChampion"
	RoleEconomicBuyer    = "economicBuyer"
	RoleTechnicalBuyer   = "technicalBuyer"
	RoleCoach            = "coach"
	RoleInfluential      = "influential"
	RoleNoPower          = "noPower"
	RoleUnknown          = "unknown"
	RoleDetractor        = "detractor"
)

var (
	sentiments = []string{SentimentHigh, SentimentMedium, SentimentLow, SentimentUnknown}
	awareness  = []string{AwarenessHold, AwarenessEmailOnly, AwarenessLow, AwarenessGoAhead, AwarenessUnknown}
	roleTypes  = []string{
		RoleTechChampion, RoleBusinessChampion, RoleEconomicBuyer, RoleTechnicalBuyer,
		RoleCoach, RoleInfluential, RoleNoPower, RoleUnknown, RoleDetractor,
	}
)

// LogEntry is one item of a person's append-only conversation trail.
type LogEntry struct {
	Summary   string    `json:"summary" bson:"summary" validate:"required"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Sentiment string    `json:"sentiment,omitempty" bson:"sentiment,omitempty" validate:"omitempty,sentiment"`
	Awareness string    `json:"awareness,omitempty" bson:"awareness,omitempty" validate:"omitempty,awareness"`
}

// Person is a customer stakeholder in an account's org chart.
// ReportingTo holds at most one email; it is a list for compatibility with stored data.
type Person struct {
	Email        string     `json:"email" bson:"email" validate:"required,email"`
	Name         string     `json:"name,omitempty" bson:"name,omitempty"`
	Designation  string     `json:"designation,omitempty" bson:"designation,omitempty"`
	Location     string     `json:"location,omitempty" bson:"location,omitempty"`
	BusinessUnit []string   `json:"businessUnit,omitempty" bson:"businessUnit,omitempty"`
	Sentiment    string     `json:"sentiment,omitempty" bson:"sentiment,omitempty" validate:"omitempty,sentiment"`
	Awareness    string     `json:"awareness,omitempty" bson:"awareness,omitempty" validate:"omitempty,awareness"`
	Type         string     `json:"type,omitempty" bson:"type,omitempty" validate:"omitempty,roletype"`
	ReportingTo  []string   `json:"reportingTo" bson:"reportingTo" validate:"max=1,dive,email"`
	Reportees    []string   `json:"reportees" bson:"reportees"`
	LogHistory   []LogEntry `json:"logHistory,omitempty" bson:"logHistory,omitempty" validate:"dive"`
	AccountID    string     `json:"accountId" bson:"accountId" validate:"required"`
	CreatedAt    time.Time  `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty" bson:"updatedAt"`
}

// Key returns the case-insensitive identity of the person.
func (p Person) Key() string {
	return EmailKey(p.Email)
}

// Manager returns the email the person reports to, or "" for a root.
func (p Person) Manager() string {
	if len(p.ReportingTo) == 0 {
		return ""
	}
	return p.ReportingTo[0]
}

// IsRoot reports whether the person sits at the top of the chart.
func (p Person) IsRoot() bool {
	return len(p.ReportingTo) == 0
}

// HasReportee reports whether email is listed among the person's reportees.
func (p Person) HasReportee(email string) bool {
	key := EmailKey(email)
	for _, r := range p.Reportees {
		if EmailKey(r) == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate slices freely.
func (p Person) Clone() Person {
	p.BusinessUnit = cloneStrings(p.BusinessUnit)
	p.ReportingTo = cloneStrings(p.ReportingTo)
	p.Reportees = cloneStrings(p.Reportees)
	if p.LogHistory != nil {
		p.LogHistory = append([]LogEntry(nil), p.LogHistory...)
	}
	return p
}

// Normalize fills enum defaults and guarantees non-nil relation lists.
func (p *Person) Normalize() {
	p.Email = strings.TrimSpace(p.Email)
	if p.Sentiment == "" {
		p.Sentiment = SentimentUnknown
	}
	if p.Awareness == "" {
		p.Awareness = AwarenessUnknown
	}
	if p.Type == "" {
		p.Type = RoleUnknown
	}
	if p.ReportingTo == nil {
		p.ReportingTo = []string{}
	}
	if p.Reportees == nil {
		p.Reportees = []string{}
	}
}

// Location is one office of an account.
type Location struct {
	City    string `json:"city" bson:"city"`
	Country string `json:"country" bson:"country"`
}

// Label renders the location the way person records reference it.
func (l Location) Label() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + ", " + l.Country
}

// Account owns persons and supplies the option lists used to validate them.
type Account struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name" validate:"required"`
	Region       []string   `json:"region,omitempty" bson:"region,omitempty"`
	BusinessUnit []string   `json:"businessUnit,omitempty" bson:"businessUnit,omitempty"`
	Locations    []Location `json:"locations,omitempty" bson:"locations,omitempty"`
	Active       bool       `json:"active" bson:"active"`
	MappedUsers  []string   `json:"mappedUsers,omitempty" bson:"mappedUsers,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty" bson:"updatedAt"`
}

// RelationUpdate carries only the hierarchy fields of one record in a batch.
type RelationUpdate struct {
	Email       string   `json:"email" validate:"required,email"`
	ReportingTo []string `json:"reportingTo" validate:"max=1,dive,email"`
	Reportees   []string `json:"reportees" validate:"dive,email"`
}

// BulkUpdateRequest is the batch reparent payload.
type BulkUpdateRequest struct {
	Updates   []RelationUpdate `json:"updates" validate:"required,min=1,dive"`
	AccountID string           `json:"accountId" validate:"required"`
}

// EmailKey normalizes an email for comparison and storage keys.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two emails case-insensitively.
func SameEmail(a, b string) bool {
	return EmailKey(a) == EmailKey(b)
}

// ValidSentiment reports whether s is one of the sentiment values.
func ValidSentiment(s string) bool {
	return contains(sentiments, s)
}

// ValidAwareness reports whether s is one of the awareness values.
func ValidAwareness(s string) bool {
	return contains(awareness, s)
}

// ValidRoleType reports whether s is one of the role tags.
func ValidRoleType(s string) bool {
	return contains(roleTypes, s)
}

// RoleTypes lists the role tags in display order.
func RoleTypes() []string {
	return cloneStrings(roleTypes)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
