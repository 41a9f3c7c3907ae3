package cases

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/court-case-api/models"
)

// NumberGenerator hands out case numbers at registration time
type NumberGenerator interface {
	Next(ctx context.Context, courtType models.CourtType, at time.Time) (string, error)
}

// Counter is the slice of the case store the counting generator needs
type Counter interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// FormatCaseNumber renders PREFIX/YYYY/NNNN
func FormatCaseNumber(courtType models.CourtType, year, seq int) string {
	return fmt.Sprintf("%s/%d/%04d", courtType.Prefix(), year, seq)
}

// CountingGenerator numbers a case as one more than the cases already
// registered in the same calendar year. Collisions are caught by the unique
// index on courtCase.caseNumber and retried by the caller.
type CountingGenerator struct {
	Cases Counter
}

// Next returns the next case number for the year of at
func (g CountingGenerator) Next(ctx context.Context, courtType models.CourtType, at time.Time) (string, error) {
	at = at.UTC()
	start := time.Date(at.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	count, err := g.Cases.CountDocuments(ctx, bson.M{
		"courtCase.registrationDate": bson.M{
			"$gte": primitive.NewDateTimeFromTime(start),
			"$lt":  primitive.NewDateTimeFromTime(end),
		},
	})
	if err != nil {
		return "", Wrap(err, KindServer, "failed to count cases for numbering")
	}
	return FormatCaseNumber(courtType, at.Year(), int(count)+1), nil
}
