package cases_test

import (
	"context"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

// memCases is an in-memory CaseDatabase understanding the filter operators
// the cases package emits: $and, $or, $in, $gte, $lt, regexes and dotted
// equality that walks into arrays.
type memCases struct {
	mu   sync.Mutex
	docs []models.CourtCase

	beforeInsert  func(m *memCases)
	beforeReplace func(m *memCases, id primitive.ObjectID)
	replaceErr    error
	findErr       error

	inserts  int
	replaces int
	lastFind bson.M
}

type insertedID struct{ id interface{} }

func (i insertedID) Decode() interface{} { return i.id }

var _ databases.CaseDatabase = (*memCases)(nil)

func (m *memCases) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) (*models.CourtCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if matchDoc(d, filter.(bson.M)) {
			c := clone(d)
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memCases) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CourtCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFind = filter.(bson.M)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.CourtCase
	for _, d := range m.docs {
		if matchDoc(d, filter.(bson.M)) {
			out = append(out, clone(d))
		}
	}
	for _, o := range opts {
		if o.Skip != nil {
			skip := int(*o.Skip)
			if skip > len(out) {
				skip = len(out)
			}
			out = out[skip:]
		}
		if o.Limit != nil && int(*o.Limit) < len(out) {
			out = out[:*o.Limit]
		}
	}
	return out, nil
}

func (m *memCases) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.docs {
		if matchDoc(d, filter.(bson.M)) {
			n++
		}
	}
	return n, nil
}

func (m *memCases) InsertOne(_ context.Context, courtCase models.CourtCase) (databases.InsertOneResultHelper, error) {
	if m.beforeInsert != nil {
		hook := m.beforeInsert
		m.beforeInsert = nil
		hook(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	for _, d := range m.docs {
		if d.Details.CaseNumber == courtCase.Details.CaseNumber {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
				Code:    11000,
				Message: "E11000 duplicate key error collection: courtcases index: caseNumber_unique",
			}}}
		}
	}
	m.docs = append(m.docs, clone(courtCase))
	return insertedID{id: courtCase.ID}, nil
}

func (m *memCases) ReplaceOne(_ context.Context, filter interface{}, courtCase models.CourtCase) (int64, error) {
	if m.beforeReplace != nil {
		m.beforeReplace(m, courtCase.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	for i, d := range m.docs {
		if matchDoc(d, filter.(bson.M)) {
			m.docs[i] = clone(courtCase)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memCases) UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error) {
	return 0, nil
}

func (m *memCases) EnsureIndexes(context.Context) error { return nil }

// put stores a document directly, bypassing hooks
func (m *memCases) put(c models.CourtCase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, clone(c))
}

func (m *memCases) get(id primitive.ObjectID) models.CourtCase {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return clone(d)
		}
	}
	panic("no document " + id.Hex())
}

// bump simulates another writer committing first
func (m *memCases) bump(id primitive.ObjectID, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs[i].Version++
			m.docs[i].Details.AddHistoryEntry(action, "someone-else", "concurrent write", m.docs[i].Details.UpdatedAt)
		}
	}
}

func clone(c models.CourtCase) models.CourtCase {
	raw, err := bson.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out models.CourtCase
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func matchDoc(c models.CourtCase, filter bson.M) bool {
	raw, err := bson.Marshal(c)
	if err != nil {
		panic(err)
	}
	var doc map[string]interface{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		panic(err)
	}
	return matches(doc, filter)
}

func matches(doc map[string]interface{}, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range cond.([]bson.M) {
				if !matches(doc, sub) {
					return false
				}
			}
		case "$or":
			hit := false
			for _, sub := range cond.([]bson.M) {
				if matches(doc, sub) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		default:
			if !matchValues(lookup(doc, strings.Split(key, ".")), cond) {
				return false
			}
		}
	}
	return true
}

func lookup(v interface{}, path []string) []interface{} {
	if len(path) == 0 {
		if arr, ok := asArray(v); ok {
			return arr
		}
		return []interface{}{v}
	}
	if arr, ok := asArray(v); ok {
		var out []interface{}
		for _, el := range arr {
			out = append(out, lookup(el, path)...)
		}
		return out
	}
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	next, ok := m[path[0]]
	if !ok {
		return nil
	}
	return lookup(next, path[1:])
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case bson.M:
		return t, true
	case bson.D:
		return t.Map(), true
	}
	return nil, false
}

func asArray(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []interface{}:
		return t, true
	}
	return nil, false
}

func matchValues(vals []interface{}, cond interface{}) bool {
	switch c := cond.(type) {
	case bson.M:
		for op, arg := range c {
			switch op {
			case "$in":
				hit := false
				for _, want := range arg.(bson.A) {
					if want == nil && len(vals) == 0 {
						hit = true
					}
					for _, v := range vals {
						if equal(v, want) {
							hit = true
						}
					}
				}
				if !hit {
					return false
				}
			case "$gte", "$lt":
				bound := arg.(primitive.DateTime)
				hit := false
				for _, v := range vals {
					dt, ok := v.(primitive.DateTime)
					if ok && ((op == "$gte" && dt >= bound) || (op == "$lt" && dt < bound)) {
						hit = true
					}
				}
				if !hit {
					return false
				}
			default:
				panic("unsupported operator " + op)
			}
		}
		return true
	case primitive.Regex:
		pattern := c.Pattern
		if strings.Contains(c.Options, "i") {
			pattern = "(?i)" + pattern
		}
		re := regexp.MustCompile(pattern)
		for _, v := range vals {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	default:
		for _, v := range vals {
			if equal(v, c) {
				return true
			}
		}
		return false
	}
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.String && bv.Kind() == reflect.String {
		return av.String() == bv.String()
	}
	return reflect.DeepEqual(a, b)
}

// memIdentity resolves principals from a fixed directory
type memIdentity map[string]models.Principal

func (m memIdentity) Resolve(_ context.Context, id string) (models.Principal, error) {
	p, ok := m[id]
	if !ok {
		return models.Principal{}, cases.New(cases.KindNotFound, "user %q not found", id)
	}
	return p, nil
}

// recorder counts business events
type recorder struct {
	mu         sync.Mutex
	registered int
	statuses   []models.CaseStatus
	hearings   int
	orders     int
	conflicts  int
}

func (r *recorder) CaseRegistered(models.CourtType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered++
}

func (r *recorder) StatusChanged(_, to models.CaseStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, to)
}

func (r *recorder) HearingScheduled(models.HearingType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hearings++
}

func (r *recorder) OrderPassed(models.OrderType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders++
}

func (r *recorder) VersionConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}
