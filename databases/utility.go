package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// PaginatedFindOptions builds the skip/limit/sort options for one page of results.
// direction is 1 for ascending and -1 for descending.
func PaginatedFindOptions(page, limit int, sortField string, direction int) *options.FindOptions {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	if sortField != "" {
		// _id breaks ties so pages stay stable
		opts.SetSort(bson.D{{Key: sortField, Value: direction}, {Key: "_id", Value: direction}})
	}
	return opts
}
