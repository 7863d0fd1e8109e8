// ABOUTME: Command journal for accumulating several moves before one batch save
// ABOUTME: Replays commands on a working copy and diffs it against the loaded roster
package orgchart

import "github.com/harperreed/orgmap/models"

// ReparentCommand is one recorded move. An empty NewManager promotes to root.
type ReparentCommand struct {
	Child      string `json:"child"`
	NewManager string `json:"newManager"`
}

// Journal tracks moves made during one editing session.
type Journal struct {
	base     *Roster
	working  *Roster
	commands []ReparentCommand
}

// NewJournal starts a session over persons.
func NewJournal(persons []models.Person) *Journal {
	j := &Journal{}
	j.Reset(persons)
	return j
}

// Reset discards all commands and reloads the base list.
func (j *Journal) Reset(persons []models.Person) {
	j.base = NewRoster(persons)
	j.working = j.base.Clone()
	j.commands = nil
}

// Move validates against the working copy and applies the move there.
// Rejected and no-op moves are not recorded.
func (j *Journal) Move(child, newManager string) (Move, error) {
	mv, err := j.working.Reparent(child, newManager)
	if err != nil {
		return Move{}, err
	}
	if !mv.NoOp {
		j.commands = append(j.commands, ReparentCommand{Child: mv.Child, NewManager: mv.NewManager})
	}
	return mv, nil
}

// Undo drops the last command and rebuilds the working copy. It returns false
// when there is nothing to undo.
func (j *Journal) Undo() bool {
	if len(j.commands) == 0 {
		return false
	}
	j.commands = j.commands[:len(j.commands)-1]
	j.working = j.base.Clone()
	for _, cmd := range j.commands {
		// every command applied cleanly before, replaying in order cannot fail
		_, _ = j.working.Reparent(cmd.Child, cmd.NewManager)
	}
	return true
}

// Commands returns the recorded moves in order.
func (j *Journal) Commands() []ReparentCommand {
	return append([]ReparentCommand(nil), j.commands...)
}

// Len returns the number of recorded moves.
func (j *Journal) Len() int {
	return len(j.commands)
}

// Working returns a copy of the roster with all moves applied.
func (j *Journal) Working() *Roster {
	return j.working.Clone()
}

// Pending lists the hierarchy fields of every record that differs from the
// base, in storage order. This is the payload of a batch save.
func (j *Journal) Pending() []models.RelationUpdate {
	var updates []models.RelationUpdate
	for i := range j.working.persons {
		p := &j.working.persons[i]
		orig := j.base.lookup(p.Email)
		if orig != nil && sameEmails(orig.ReportingTo, p.ReportingTo) && sameEmails(orig.Reportees, p.Reportees) {
			continue
		}
		updates = append(updates, models.RelationUpdate{
			Email:       p.Email,
			ReportingTo: nonNil(p.ReportingTo),
			Reportees:   nonNil(p.Reportees),
		})
	}
	return updates
}
