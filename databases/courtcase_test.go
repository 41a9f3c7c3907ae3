package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/databases/mocks"
	"github.com/linesmerrill/court-case-api/models"
)

func TestNewCaseDatabase(t *testing.T) {
	_ = os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	_ = os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	caseDB := databases.NewCaseDatabase(db)

	assert.NotEmpty(t, caseDB)
}

func TestCaseDatabase_FindOne(t *testing.T) {
	id := primitive.NewObjectID()

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.CourtCase)
		(*arg).ID = id
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "courtcases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	courtCase, err := caseDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, courtCase)
	assert.EqualError(t, err, "mocked-error")

	courtCase, err = caseDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &models.CourtCase{ID: id}, courtCase)
	assert.NoError(t, err)
}

func TestCaseDatabase_Find(t *testing.T) {
	id := primitive.NewObjectID()

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorCorrect databases.CursorHelper
	var cursorErr databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorCorrect = &mocks.CursorHelper{}
	cursorErr = &mocks.CursorHelper{}

	cursorCorrect.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.CourtCase)
		*arg = []models.CourtCase{{ID: id}}
	})
	cursorCorrect.(*mocks.CursorHelper).On("Close", context.Background()).Return(nil)

	cursorErr.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(errors.New("mocked-error"))
	cursorErr.(*mocks.CursorHelper).On("Close", context.Background()).Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(cursorErr, nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorCorrect, nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"unreachable": true}).
		Return(nil, errors.New("server selection error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "courtcases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	courtCases, err := caseDba.Find(context.Background(), bson.M{"error": true})
	assert.Empty(t, courtCases)
	assert.EqualError(t, err, "mocked-error")

	courtCases, err = caseDba.Find(context.Background(), bson.M{"unreachable": true})
	assert.Empty(t, courtCases)
	assert.EqualError(t, err, "server selection error")

	courtCases, err = caseDba.Find(context.Background(), bson.M{"error": false})
	assert.Equal(t, []models.CourtCase{{ID: id}}, courtCases)
	assert.NoError(t, err)
	cursorCorrect.(*mocks.CursorHelper).AssertCalled(t, "Close", context.Background())
}

func TestCaseDatabase_ReplaceOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	courtCase := models.CourtCase{ID: primitive.NewObjectID(), Version: 3}
	hit := bson.M{"_id": courtCase.ID, "__v": int32(2)}
	miss := bson.M{"_id": courtCase.ID, "__v": int32(1)}
	broken := bson.M{"_id": courtCase.ID, "__v": int32(0)}

	collectionHelper.On("ReplaceOne", context.Background(), hit, courtCase).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.On("ReplaceOne", context.Background(), miss, courtCase).
		Return(&mongo.UpdateResult{}, nil)
	collectionHelper.On("ReplaceOne", context.Background(), broken, courtCase).
		Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "courtcases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	matched, err := caseDba.ReplaceOne(context.Background(), hit, courtCase)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	matched, err = caseDba.ReplaceOne(context.Background(), miss, courtCase)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), matched)

	_, err = caseDba.ReplaceOne(context.Background(), broken, courtCase)
	assert.EqualError(t, err, "mocked-error")
}

func TestCaseDatabase_UpdateOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	id := primitive.NewObjectID()
	update := bson.M{"$set": bson.M{"courtCase.notificationStatus": "sent"}}
	current := bson.M{"_id": id, "__v": int32(4)}
	stale := bson.M{"_id": id, "__v": int32(3)}
	broken := bson.M{"_id": id, "__v": int32(0)}

	collectionHelper.On("UpdateOne", context.Background(), current, update).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.On("UpdateOne", context.Background(), stale, update).
		Return(&mongo.UpdateResult{}, nil)
	collectionHelper.On("UpdateOne", context.Background(), broken, update).
		Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "courtcases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	matched, err := caseDba.UpdateOne(context.Background(), current, update)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	matched, err = caseDba.UpdateOne(context.Background(), stale, update)
	assert.NoError(t, err)
	assert.Zero(t, matched)

	_, err = caseDba.UpdateOne(context.Background(), broken, update)
	assert.EqualError(t, err, "mocked-error")
}

func TestCaseDatabase_InsertOneAndCount(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	id := primitive.NewObjectID()
	courtCase := models.CourtCase{ID: id}
	insertResult.On("Decode").Return(id)
	collectionHelper.On("InsertOne", context.Background(), courtCase).Return(insertResult, nil)
	collectionHelper.On("CountDocuments", context.Background(), bson.M{}).Return(int64(7), nil)
	dbHelper.On("Collection", "courtcases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	res, err := caseDba.InsertOne(context.Background(), courtCase)
	assert.NoError(t, err)
	assert.Equal(t, id, res.Decode())

	count, err := caseDba.CountDocuments(context.Background(), bson.M{})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestCaseDatabase_EnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	var created []mongo.IndexModel
	collectionHelper.On("CreateIndexes", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		created = args.Get(1).([]mongo.IndexModel)
	})
	dbHelper.On("Collection", "courtcases").Return(collectionHelper)

	err := databases.NewCaseDatabase(dbHelper).EnsureIndexes(context.Background())
	assert.NoError(t, err)
	if assert.NotEmpty(t, created) {
		assert.Equal(t, bson.D{{Key: "courtCase.caseNumber", Value: 1}}, created[0].Keys)
		assert.True(t, *created[0].Options.Unique)
	}
}
