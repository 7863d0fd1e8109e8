// ABOUTME: Ordered, case-insensitive index over an account's flat person list
// ABOUTME: Every hierarchy mutation in the module goes through a Roster
package orgchart

import (
	"errors"
	"fmt"

	"github.com/harperreed/orgmap/models"
)

var ErrUnknownPerson = errors.New("person not found")

// Roster holds private copies of persons in storage order.
type Roster struct {
	persons []models.Person
	index   map[string]int
}

// NewRoster copies persons into a new roster. A repeated email replaces the
// earlier record but keeps its position.
func NewRoster(persons []models.Person) *Roster {
	r := &Roster{
		persons: make([]models.Person, 0, len(persons)),
		index:   make(map[string]int, len(persons)),
	}
	for _, p := range persons {
		r.Put(p)
	}
	return r
}

// Len returns the number of persons.
func (r *Roster) Len() int {
	return len(r.persons)
}

// Get returns a copy of the person with the given email.
func (r *Roster) Get(email string) (models.Person, bool) {
	p := r.lookup(email)
	if p == nil {
		return models.Person{}, false
	}
	return p.Clone(), true
}

// Has reports whether email is present.
func (r *Roster) Has(email string) bool {
	return r.lookup(email) != nil
}

// Persons returns copies of all persons in storage order.
func (r *Roster) Persons() []models.Person {
	out := make([]models.Person, len(r.persons))
	for i := range r.persons {
		out[i] = r.persons[i].Clone()
	}
	return out
}

// Clone returns an independent roster.
func (r *Roster) Clone() *Roster {
	return NewRoster(r.persons)
}

// Put inserts or replaces a person.
func (r *Roster) Put(p models.Person) {
	p = p.Clone()
	key := p.Key()
	if i, ok := r.index[key]; ok {
		r.persons[i] = p
		return
	}
	r.index[key] = len(r.persons)
	r.persons = append(r.persons, p)
}

// Remove drops a person and returns whether it existed. Relation lists of
// other persons are left as they are.
func (r *Roster) Remove(email string) bool {
	key := models.EmailKey(email)
	i, ok := r.index[key]
	if !ok {
		return false
	}
	r.persons = append(r.persons[:i], r.persons[i+1:]...)
	delete(r.index, key)
	for k, idx := range r.index {
		if idx > i {
			r.index[k] = idx - 1
		}
	}
	return true
}

// ApplyRelations overwrites the hierarchy fields of existing persons with the
// given updates, as received from a batch request. It does not repair the
// inverse relation; callers audit the result.
func (r *Roster) ApplyRelations(updates []models.RelationUpdate) error {
	for _, u := range updates {
		if r.lookup(u.Email) == nil {
			return fmt.Errorf("%w: %s", ErrUnknownPerson, u.Email)
		}
	}
	for _, u := range updates {
		p := r.lookup(u.Email)
		p.ReportingTo = nonNil(u.ReportingTo)
		p.Reportees = nonNil(u.Reportees)
	}
	return nil
}

func (r *Roster) lookup(email string) *models.Person {
	i, ok := r.index[models.EmailKey(email)]
	if !ok {
		return nil
	}
	return &r.persons[i]
}

func nonNil(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func sameEmails(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !models.SameEmail(a[i], b[i]) {
			return false
		}
	}
	return true
}

func removeEmail(list []string, email string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if !models.SameEmail(e, email) {
			out = append(out, e)
		}
	}
	return out
}
