// ABOUTME: Consistency checks over stored reporting lines
// ABOUTME: Audit reports broken inverses, duplicates, dangling references and cycles; Reconcile repairs them
package orgchart

import (
	"fmt"

	"github.com/harperreed/orgmap/models"
)

// IssueKind classifies a consistency problem.
type IssueKind string

const (
	IssueMultipleManagers  IssueKind = "multiple_managers"
	IssueSelfReport        IssueKind = "self_report"
	IssueDanglingManager   IssueKind = "dangling_manager"
	IssueDanglingReportee  IssueKind = "dangling_reportee"
	IssueMissingReportee   IssueKind = "missing_reportee"
	IssueStaleReportee     IssueKind = "stale_reportee"
	IssueDuplicateReportee IssueKind = "duplicate_reportee"
	IssueCycle             IssueKind = "cycle"
)

// Issue is one problem found by Audit.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Email   string    `json:"email"`
	Related string    `json:"related,omitempty"`
	Members []string  `json:"members,omitempty"`
	Message string    `json:"message"`
}

// Involves reports whether email is the subject, the related person or a
// loop member of the issue.
func (i Issue) Involves(email string) bool {
	if models.SameEmail(i.Email, email) || models.SameEmail(i.Related, email) {
		return true
	}
	for _, m := range i.Members {
		if models.SameEmail(m, email) {
			return true
		}
	}
	return false
}

func (i Issue) String() string {
	return i.Message
}

// Audit checks persons for every way the hierarchy can be inconsistent.
// Issues are reported in storage order.
func Audit(persons []models.Person) []Issue {
	r := NewRoster(persons)
	issues := []Issue{}

	for i := range r.persons {
		p := &r.persons[i]

		if len(p.ReportingTo) > 1 {
			issues = append(issues, Issue{
				Kind:    IssueMultipleManagers,
				Email:   p.Email,
				Message: fmt.Sprintf("%s reports to %d managers", p.Email, len(p.ReportingTo)),
			})
		}

		if mgrEmail := p.Manager(); mgrEmail != "" {
			mgr := r.lookup(mgrEmail)
			switch {
			case models.SameEmail(mgrEmail, p.Email):
				issues = append(issues, Issue{
					Kind:    IssueSelfReport,
					Email:   p.Email,
					Message: fmt.Sprintf("%s reports to themselves", p.Email),
				})
			case mgr == nil:
				issues = append(issues, Issue{
					Kind:    IssueDanglingManager,
					Email:   p.Email,
					Related: mgrEmail,
					Message: fmt.Sprintf("%s reports to unknown person %s", p.Email, mgrEmail),
				})
			case !mgr.HasReportee(p.Email):
				issues = append(issues, Issue{
					Kind:    IssueMissingReportee,
					Email:   p.Email,
					Related: mgr.Email,
					Message: fmt.Sprintf("%s reports to %s but is not listed as their reportee", p.Email, mgr.Email),
				})
			}
		}

		listed := make(map[string]bool, len(p.Reportees))
		for _, re := range p.Reportees {
			if listed[models.EmailKey(re)] {
				issues = append(issues, Issue{
					Kind:    IssueDuplicateReportee,
					Email:   p.Email,
					Related: re,
					Message: fmt.Sprintf("%s lists %s as a reportee more than once", p.Email, re),
				})
				continue
			}
			listed[models.EmailKey(re)] = true

			child := r.lookup(re)
			switch {
			case models.SameEmail(re, p.Email):
				issues = append(issues, Issue{
					Kind:    IssueSelfReport,
					Email:   p.Email,
					Message: fmt.Sprintf("%s lists themselves as a reportee", p.Email),
				})
			case child == nil:
				issues = append(issues, Issue{
					Kind:    IssueDanglingReportee,
					Email:   p.Email,
					Related: re,
					Message: fmt.Sprintf("%s lists unknown reportee %s", p.Email, re),
				})
			case !models.SameEmail(child.Manager(), p.Email):
				issues = append(issues, Issue{
					Kind:    IssueStaleReportee,
					Email:   p.Email,
					Related: child.Email,
					Message: fmt.Sprintf("%s lists %s as a reportee but they report to %q", p.Email, child.Email, child.Manager()),
				})
			}
		}
	}

	for _, cycle := range r.cycles() {
		issues = append(issues, Issue{
			Kind:    IssueCycle,
			Email:   cycle[0],
			Members: cycle,
			Message: fmt.Sprintf("reporting cycle: %v", cycle),
		})
	}
	return issues
}

// cycles finds every reporting loop once. Each loop is returned starting with
// its member earliest in storage order. Self loops are reported by Audit directly.
func (r *Roster) cycles() [][]string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(r.persons))
	var found [][]string

	for start := range r.persons {
		if state[start] != unvisited {
			continue
		}
		var path []int
		cur := start
		for cur >= 0 && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = r.managerIndex(cur)
		}
		if cur >= 0 && state[cur] == onPath {
			// cur is the loop entry; the loop is the path suffix starting there
			for i, idx := range path {
				if idx != cur {
					continue
				}
				loop := path[i:]
				if len(loop) > 1 {
					found = append(found, r.rotateLoop(loop))
				}
				break
			}
		}
		for _, idx := range path {
			state[idx] = done
		}
	}
	return found
}

func (r *Roster) managerIndex(i int) int {
	idx, ok := r.index[models.EmailKey(r.persons[i].Manager())]
	if !ok {
		return -1
	}
	return idx
}

func (r *Roster) rotateLoop(loop []int) []string {
	minPos := 0
	for i, idx := range loop {
		if idx < loop[minPos] {
			minPos = i
		}
	}
	out := make([]string, 0, len(loop))
	for i := range loop {
		out = append(out, r.persons[loop[(minPos+i)%len(loop)]].Email)
	}
	return out
}

// Reconcile repairs persons and returns the full repaired list plus copies of
// the records that changed. reportingTo is authoritative: extra managers,
// self and dangling managers are dropped, each loop is broken by promoting
// its earliest member to root, and reportees are rebuilt from the result,
// keeping the existing order for valid entries.
func Reconcile(persons []models.Person) ([]models.Person, []models.Person) {
	r := NewRoster(persons)
	before := r.Clone()

	for i := range r.persons {
		p := &r.persons[i]
		mgr := p.Manager()
		if mgr == "" || models.SameEmail(mgr, p.Email) || r.lookup(mgr) == nil {
			p.ReportingTo = []string{}
			continue
		}
		p.ReportingTo = []string{r.lookup(mgr).Email}
	}

	for _, loop := range r.cycles() {
		r.lookup(loop[0]).ReportingTo = []string{}
	}

	reports := make(map[string][]string, len(r.persons))
	for i := range r.persons {
		p := &r.persons[i]
		if mgr := p.Manager(); mgr != "" {
			key := models.EmailKey(mgr)
			reports[key] = append(reports[key], p.Email)
		}
	}

	for i := range r.persons {
		p := &r.persons[i]
		want := reports[p.Key()]
		rebuilt := make([]string, 0, len(want))
		placed := map[string]bool{}
		for _, re := range p.Reportees {
			child := r.lookup(re)
			if child == nil || placed[child.Key()] || !models.SameEmail(child.Manager(), p.Email) {
				continue
			}
			placed[child.Key()] = true
			rebuilt = append(rebuilt, child.Email)
		}
		for _, email := range want {
			if !placed[models.EmailKey(email)] {
				placed[models.EmailKey(email)] = true
				rebuilt = append(rebuilt, email)
			}
		}
		p.Reportees = rebuilt
	}

	changed := []models.Person{}
	for i := range r.persons {
		p := &r.persons[i]
		orig := before.lookup(p.Email)
		if !sameEmails(orig.ReportingTo, p.ReportingTo) || !sameEmails(orig.Reportees, p.Reportees) {
			changed = append(changed, p.Clone())
		}
	}
	return r.Persons(), changed
}
