package cases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/models"
)

func TestBuildListFilter_KeepsRoleAndSearchGroupsApart(t *testing.T) {
	o, err := cases.ListOptions{Search: "lease (2026)", Status: models.StatusPending}.Normalize()
	require.NoError(t, err)

	filter, err := cases.BuildListFilter(judge, o)
	require.NoError(t, err)

	and := filter["$and"].([]bson.M)
	require.Len(t, and, 4)
	assert.Equal(t, bson.M{"courtCase.isActive": true}, and[0])
	assert.Equal(t, bson.M{"$or": []bson.M{
		{"courtCase.assignedJudge": judgeID},
		{"courtCase.assignedJudge": bson.M{"$in": bson.A{nil, ""}}},
	}}, and[1])
	assert.Equal(t, bson.M{"courtCase.status": models.StatusPending}, and[2])

	re := primitive.Regex{Pattern: `lease \(2026\)`, Options: "i"}
	assert.Equal(t, bson.M{"$or": []bson.M{
		{"courtCase.title": re},
		{"courtCase.caseNumber": re},
		{"courtCase.description": re},
	}}, and[3])
}

func TestBuildListFilter_RolePredicates(t *testing.T) {
	tests := []struct {
		name string
		p    models.Principal
		want []bson.M
	}{
		{"registrar", registrar, []bson.M{{"courtCase.isActive": true}}},
		{"lawyer", lawyer, []bson.M{{"courtCase.isActive": true}, {"courtCase.parties.assignedLawyerId": lawyerID}}},
		{"user", petitioner, []bson.M{{"courtCase.isActive": true}, {"courtCase.parties.userId": petitionerID}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := cases.BuildListFilter(tt.p, cases.ListOptions{})
			require.NoError(t, err)
			assert.Equal(t, bson.M{"$and": tt.want}, filter)
		})
	}

	_, err := cases.BuildListFilter(models.Principal{ID: "x", Role: "bailiff"}, cases.ListOptions{})
	assert.True(t, cases.IsKind(err, cases.KindForbidden))
}

func TestBuildListFilter_ExplicitFilters(t *testing.T) {
	filter, err := cases.BuildListFilter(registrar, cases.ListOptions{
		CaseType: models.CaseFamily,
		Priority: models.PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"courtCase.isActive": true},
		{"courtCase.caseType": models.CaseFamily},
		{"courtCase.priority": models.PriorityUrgent},
	}}, filter)
}

func TestBuildStatsFilter_IgnoresSearch(t *testing.T) {
	filter, err := cases.BuildStatsFilter(lawyer)
	require.NoError(t, err)
	assert.Len(t, filter["$and"], 2)
}

func TestListOptions_Normalize(t *testing.T) {
	o, err := cases.ListOptions{Page: -3, Limit: 500, Search: "  smith  "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 1, o.Page)
	assert.Equal(t, 100, o.Limit)
	assert.Equal(t, "smith", o.Search)
	field, dir := o.SortField()
	assert.Equal(t, "courtCase.registrationDate", field)
	assert.Equal(t, -1, dir)

	o, err = cases.ListOptions{SortBy: "nextHearing", SortOrder: "ASC"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 10, o.Limit)
	field, dir = o.SortField()
	assert.Equal(t, "courtCase.nextHearing.date", field)
	assert.Equal(t, 1, dir)

	bad := []cases.ListOptions{
		{SortBy: "courtCase.password"},
		{SortOrder: "sideways"},
		{Status: "closed"},
		{CaseType: "maritime"},
		{Priority: "whenever"},
	}
	for _, b := range bad {
		_, err := b.Normalize()
		assert.True(t, cases.IsKind(err, cases.KindValidation), "%+v", b)
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, cases.Pagination{CurrentPage: 1, TotalPages: 3, TotalCount: 25, HasNextPage: true}, cases.NewPagination(1, 10, 25))
	assert.Equal(t, cases.Pagination{CurrentPage: 3, TotalPages: 3, TotalCount: 25, HasPrevPage: true}, cases.NewPagination(3, 10, 25))
	assert.Equal(t, cases.Pagination{CurrentPage: 1}, cases.NewPagination(1, 10, 0))
	assert.Equal(t, cases.Pagination{CurrentPage: 5, TotalPages: 1, TotalCount: 4, HasPrevPage: true}, cases.NewPagination(5, 10, 4))
}
