package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/court-case-api/models"
)

const courtCaseName = "courtcases"

// CaseDatabase contains the methods to use with the court case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CourtCase, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CourtCase, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, courtCase models.CourtCase) (InsertOneResultHelper, error)
	ReplaceOne(ctx context.Context, filter interface{}, courtCase models.CourtCase) (int64, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of court case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CourtCase, error) {
	courtCase := &models.CourtCase{}
	err := c.db.Collection(courtCaseName).FindOne(ctx, filter, opts...).Decode(&courtCase)
	if err != nil {
		return nil, err
	}
	return courtCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CourtCase, error) {
	var courtCases []models.CourtCase
	curr, err := c.db.Collection(courtCaseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &courtCases)
	if err != nil {
		return nil, err
	}
	return courtCases, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(courtCaseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) InsertOne(ctx context.Context, courtCase models.CourtCase) (InsertOneResultHelper, error) {
	return c.db.Collection(courtCaseName).InsertOne(ctx, courtCase)
}

// ReplaceOne swaps the whole document matched by filter and reports how many
// documents matched. A zero count with a nil error means the filter (usually
// carrying the expected __v) did not match.
func (c *caseDatabase) ReplaceOne(ctx context.Context, filter interface{}, courtCase models.CourtCase) (int64, error) {
	res, err := c.db.Collection(courtCaseName).ReplaceOne(ctx, filter, courtCase)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// UpdateOne applies update to the document matched by filter and reports how many matched
func (c *caseDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(courtCaseName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// EnsureIndexes creates the unique case number index and the indexes used by
// role scoped listing.
func (c *caseDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(courtCaseName).CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "courtCase.caseNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("caseNumber_unique"),
		},
		{Keys: bson.D{{Key: "courtCase.assignedJudge", Value: 1}}},
		{Keys: bson.D{{Key: "courtCase.parties.userId", Value: 1}}},
		{Keys: bson.D{{Key: "courtCase.parties.assignedLawyerId", Value: 1}}},
		{Keys: bson.D{{Key: "courtCase.registrationDate", Value: -1}}},
		{Keys: bson.D{{Key: "courtCase.nextHearing.date", Value: 1}}},
	})
}
