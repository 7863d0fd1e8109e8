// ABOUTME: Tests for hierarchy audit and reconciliation
// ABOUTME: Builds deliberately broken charts and checks every issue kind is found and repaired
package orgchart

import (
	"testing"

	"github.com/harperreed/orgmap/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(issues []Issue) []IssueKind {
	out := make([]IssueKind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestAuditConsistentChart(t *testing.T) {
	assert.Empty(t, Audit(chain()))
}

func TestAuditFindsOneSidedEdges(t *testing.T) {
	persons := []models.Person{
		person("ceo@x.io", "", "other@x.io"),
		person("mgr@x.io", "ceo@x.io"),
		person("other@x.io", ""),
	}
	issues := Audit(persons)

	assert.Equal(t, []IssueKind{IssueStaleReportee, IssueMissingReportee}, kinds(issues))
	assert.Equal(t, "other@x.io", issues[0].Related)
	assert.Equal(t, "mgr@x.io", issues[1].Email)
}

func TestAuditFindsDanglingAndSelfReferences(t *testing.T) {
	persons := []models.Person{
		person("a@x.io", "ghost@x.io", "phantom@x.io"),
		person("b@x.io", "b@x.io", "b@x.io"),
	}
	persons[0].ReportingTo = append(persons[0].ReportingTo, "b@x.io")

	assert.Equal(t, []IssueKind{
		IssueMultipleManagers,
		IssueDanglingManager,
		IssueDanglingReportee,
		IssueSelfReport,
		IssueSelfReport,
	}, kinds(Audit(persons)))
}

func TestAuditFindsDuplicateReportee(t *testing.T) {
	persons := chain()
	persons[1].Reportees = []string{"ic@x.io", "IC@x.io"}

	issues := Audit(persons)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueDuplicateReportee, issues[0].Kind)
	assert.Equal(t, "mgr@x.io", issues[0].Email)
	assert.Equal(t, "IC@x.io", issues[0].Related)

	all, changed := Reconcile(persons)
	assert.Empty(t, Audit(all))
	assert.Equal(t, []string{"mgr@x.io"}, emails(changed))
}

func TestAuditFindsCycleOnce(t *testing.T) {
	persons := []models.Person{
		person("root@x.io", ""),
		person("c@x.io", "a@x.io", "b@x.io"),
		person("a@x.io", "b@x.io", "c@x.io"),
		person("b@x.io", "c@x.io", "a@x.io"),
		person("tail@x.io", "a@x.io"),
	}
	persons[2].Reportees = append(persons[2].Reportees, "tail@x.io")

	issues := Audit(persons)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueCycle, issues[0].Kind)
	assert.Equal(t, "c@x.io", issues[0].Email, "reported from earliest stored member")
	assert.Contains(t, issues[0].Message, "a@x.io")
}

func TestReconcileRepairsEverything(t *testing.T) {
	persons := []models.Person{
		person("ceo@x.io", "", "ghost@x.io", "x@x.io"),
		person("mgr@x.io", "ceo@x.io"),
		person("x@x.io", "x@x.io"),
		person("c@x.io", "d@x.io"),
		person("d@x.io", "c@x.io"),
		person("ic@x.io", "mgr@x.io"),
	}
	persons[1].ReportingTo = append(persons[1].ReportingTo, "x@x.io")

	all, changed := Reconcile(persons)
	assert.Empty(t, Audit(all))

	byEmail := map[string]models.Person{}
	for _, p := range all {
		byEmail[p.Email] = p
	}
	assert.Equal(t, []string{"mgr@x.io"}, byEmail["ceo@x.io"].Reportees)
	assert.Equal(t, []string{"ceo@x.io"}, byEmail["mgr@x.io"].ReportingTo)
	assert.Equal(t, []string{"ic@x.io"}, byEmail["mgr@x.io"].Reportees)
	assert.True(t, byEmail["x@x.io"].IsRoot())
	assert.True(t, byEmail["c@x.io"].IsRoot(), "loop broken at earliest member")
	assert.Equal(t, []string{"d@x.io"}, byEmail["c@x.io"].Reportees)

	assert.Equal(t, []string{"ceo@x.io", "mgr@x.io", "x@x.io", "c@x.io"}, emails(changed))
}

func TestReconcileKeepsExistingOrder(t *testing.T) {
	persons := []models.Person{
		person("ceo@x.io", "", "b@x.io", "a@x.io"),
		person("a@x.io", "ceo@x.io"),
		person("b@x.io", "ceo@x.io"),
		person("c@x.io", "ceo@x.io"),
	}
	all, changed := Reconcile(persons)

	assert.Equal(t, []string{"b@x.io", "a@x.io", "c@x.io"}, all[0].Reportees)
	require.Len(t, changed, 1)
	assert.Equal(t, "ceo@x.io", changed[0].Email)
}

func TestIssueInvolves(t *testing.T) {
	is := Issue{Kind: IssueCycle, Email: "a@x.io", Members: []string{"a@x.io", "B@x.io"}}
	assert.True(t, is.Involves("b@x.io"))
	assert.False(t, is.Involves("c@x.io"))

	stale := Issue{Kind: IssueStaleReportee, Email: "m@x.io", Related: "r@x.io"}
	assert.True(t, stale.Involves("R@x.io"))
}
