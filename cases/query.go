package cases

import (
	"math"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/court-case-api/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	defaultSortBy = "registrationDate"
)

var sortFields = map[string]string{
	"registrationDate": "courtCase.registrationDate",
	"caseNumber":       "courtCase.caseNumber",
	"title":            "courtCase.title",
	"status":           "courtCase.status",
	"priority":         "courtCase.priority",
	"createdAt":        "courtCase.createdAt",
	"updatedAt":        "courtCase.updatedAt",
	"nextHearing":      "courtCase.nextHearing.date",
}

// ListOptions are the optional filters, sort and paging of a case listing
type ListOptions struct {
	Page      int
	Limit     int
	Status    models.CaseStatus
	CaseType  models.CaseType
	Priority  models.Priority
	Search    string
	SortBy    string
	SortOrder string
}

// Normalize applies defaults and rejects unknown filter values
func (o ListOptions) Normalize() (ListOptions, error) {
	if o.Page < 1 {
		o.Page = defaultPage
	}
	if o.Limit < 1 {
		o.Limit = defaultLimit
	}
	if o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if o.Status != "" && !o.Status.Valid() {
		return o, New(KindValidation, "unknown status %q", o.Status)
	}
	if o.CaseType != "" && !o.CaseType.Valid() {
		return o, New(KindValidation, "unknown case type %q", o.CaseType)
	}
	if o.Priority != "" && !o.Priority.Valid() {
		return o, New(KindValidation, "unknown priority %q", o.Priority)
	}
	if o.SortBy == "" {
		o.SortBy = defaultSortBy
	}
	if _, ok := sortFields[o.SortBy]; !ok {
		return o, New(KindValidation, "cannot sort by %q", o.SortBy)
	}
	switch strings.ToLower(o.SortOrder) {
	case "asc":
		o.SortOrder = "asc"
	case "", "desc":
		o.SortOrder = "desc"
	default:
		return o, New(KindValidation, "sortOrder must be asc or desc")
	}
	o.Search = strings.TrimSpace(o.Search)
	return o, nil
}

// SortField returns the document path and direction to sort on. Call on normalized options.
func (o ListOptions) SortField() (string, int) {
	field, ok := sortFields[o.SortBy]
	if !ok {
		field = sortFields[defaultSortBy]
	}
	if o.SortOrder == "asc" {
		return field, 1
	}
	return field, -1
}

// RolePredicate is the visibility clause for p. Registrars get nil.
func RolePredicate(p models.Principal) (bson.M, error) {
	switch p.Role {
	case models.RoleRegistrar:
		return nil, nil
	case models.RoleJudge:
		return bson.M{"$or": []bson.M{
			{"courtCase.assignedJudge": p.ID},
			{"courtCase.assignedJudge": bson.M{"$in": bson.A{nil, ""}}},
		}}, nil
	case models.RoleLawyer:
		return bson.M{"courtCase.parties.assignedLawyerId": p.ID}, nil
	case models.RoleUser:
		return bson.M{"courtCase.parties.userId": p.ID}, nil
	}
	return nil, New(KindForbidden, "role %q cannot list cases", p.Role)
}

// BuildListFilter ANDs the active flag, the role predicate, explicit filters
// and the search group. The role $or and the search $or stay separate clauses.
func BuildListFilter(p models.Principal, o ListOptions) (bson.M, error) {
	role, err := RolePredicate(p)
	if err != nil {
		return nil, err
	}
	and := []bson.M{{"courtCase.isActive": true}}
	if role != nil {
		and = append(and, role)
	}
	if o.Status != "" {
		and = append(and, bson.M{"courtCase.status": o.Status})
	}
	if o.CaseType != "" {
		and = append(and, bson.M{"courtCase.caseType": o.CaseType})
	}
	if o.Priority != "" {
		and = append(and, bson.M{"courtCase.priority": o.Priority})
	}
	if o.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(o.Search), Options: "i"}
		and = append(and, bson.M{"$or": []bson.M{
			{"courtCase.title": re},
			{"courtCase.caseNumber": re},
			{"courtCase.description": re},
		}})
	}
	return bson.M{"$and": and}, nil
}

// BuildStatsFilter is the list filter without search or explicit filters
func BuildStatsFilter(p models.Principal) (bson.M, error) {
	return BuildListFilter(p, ListOptions{})
}

// withStatus narrows a stats filter to one status bucket
func withStatus(filter bson.M, status models.CaseStatus) bson.M {
	and := append([]bson.M{}, filter["$and"].([]bson.M)...)
	and = append(and, bson.M{"courtCase.status": status})
	return bson.M{"$and": and}
}

// Pagination is the paging metadata returned alongside a list page
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination derives paging metadata from the total match count
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// CaseList is one page of cases
type CaseList struct {
	Cases      []models.CourtCase `json:"cases"`
	Pagination Pagination         `json:"pagination"`
}
