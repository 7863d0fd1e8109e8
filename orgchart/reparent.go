// ABOUTME: Reparent protocol: validates and applies a change of manager
// ABOUTME: Keeps reportingTo and reportees mutually inverse across the touched records
package orgchart

import (
	"errors"
	"fmt"

	"github.com/harperreed/orgmap/models"
)

// User-facing messages are part of the API contract.
var (
	ErrSelfReport = errors.New("Cannot report to self.")        //nolint:staticcheck
	ErrCircular   = errors.New("Circular dependency detected.") //nolint:staticcheck
)

// Move describes one applied reparent.
type Move struct {
	Child      string          `json:"email"`
	OldManager string          `json:"oldManager"`
	NewManager string          `json:"newManager"`
	NoOp       bool            `json:"noOp"`
	Touched    []models.Person `json:"updates"`
}

// ValidateReparent checks moving child under newManager against persons.
// A move to the current manager is valid and changes nothing.
func ValidateReparent(persons []models.Person, child, newManager string) error {
	return NewRoster(persons).ValidateReparent(child, newManager)
}

// ApplyReparent returns copies of the records changed by the move. The input
// slice is not modified.
func ApplyReparent(persons []models.Person, child, newManager string) ([]models.Person, error) {
	mv, err := NewRoster(persons).Reparent(child, newManager)
	if err != nil {
		return nil, err
	}
	return mv.Touched, nil
}

// ValidateReparent runs the checks in order: self, no-op, then cycle.
// An empty newManager means promoting child to a root.
func (r *Roster) ValidateReparent(child, newManager string) error {
	if newManager != "" && models.SameEmail(child, newManager) {
		return ErrSelfReport
	}
	c := r.lookup(child)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, child)
	}
	if models.SameEmail(c.Manager(), newManager) {
		return nil
	}
	if newManager == "" {
		return nil
	}
	if r.lookup(newManager) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, newManager)
	}
	if r.isAncestorOrSelf(child, newManager) {
		return ErrCircular
	}
	return nil
}

// isAncestorOrSelf walks up from start and reports whether target is on the chain.
func (r *Roster) isAncestorOrSelf(target, start string) bool {
	key := models.EmailKey(target)
	seen := map[string]bool{}
	cur := r.lookup(start)
	for step := 0; cur != nil && step <= MaxAncestorSteps; step++ {
		if cur.Key() == key {
			return true
		}
		if seen[cur.Key()] {
			return false
		}
		seen[cur.Key()] = true
		cur = r.lookup(cur.Manager())
	}
	return false
}

// Reparent moves child under newManager and updates both managers' reportees.
// It is the only place the roster changes a reporting line.
func (r *Roster) Reparent(child, newManager string) (Move, error) {
	if err := r.ValidateReparent(child, newManager); err != nil {
		return Move{}, err
	}

	c := r.lookup(child)
	mv := Move{Child: c.Email, OldManager: c.Manager(), Touched: []models.Person{}}

	var newMgr *models.Person
	if newManager != "" {
		newMgr = r.lookup(newManager)
		mv.NewManager = newMgr.Email
	}
	if models.SameEmail(mv.OldManager, mv.NewManager) {
		mv.NoOp = true
		return mv, nil
	}

	touched := []string{c.Key()}

	if newMgr != nil {
		c.ReportingTo = []string{newMgr.Email}
	} else {
		c.ReportingTo = []string{}
	}

	if old := r.lookup(mv.OldManager); old != nil {
		old.Reportees = removeEmail(old.Reportees, c.Email)
		touched = append(touched, old.Key())
	}

	if newMgr != nil {
		if !newMgr.HasReportee(c.Email) {
			newMgr.Reportees = append(nonNil(newMgr.Reportees), c.Email)
		}
		touched = append(touched, newMgr.Key())
	}

	for _, key := range touched {
		mv.Touched = append(mv.Touched, r.lookup(key).Clone())
	}
	return mv, nil
}
