package companyRepo

import (
	"regexp"
	"strings"

	"senadirectory/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// textSearchFields are matched by the free-text query (logical OR).
var textSearchFields = []string{"name", "specialty", "city", "shortDescription"}

// containsCI matches value as a case-insensitive substring.
func containsCI(value string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"}
}

// BuildSearchFilter translates criteria into a mongo filter. The free-text
// query is an OR over the text fields; every active filter is ANDed on top.
func BuildSearchFilter(criteria models.SearchCriteria) bson.M {
	filter := bson.M{}

	if q := strings.TrimSpace(criteria.Query); q != "" {
		or := make(bson.A, 0, len(textSearchFields))
		for _, field := range textSearchFields {
			or = append(or, bson.M{field: containsCI(q)})
		}
		filter["$or"] = or
	}
	if c := strings.TrimSpace(criteria.Category); c != "" {
		filter["category"] = c
	}
	if s := strings.TrimSpace(criteria.Specialty); s != "" {
		filter["specialty"] = containsCI(s)
	}
	if city := strings.TrimSpace(criteria.City); city != "" {
		filter["city"] = containsCI(city)
	}
	return filter
}

// BuildSearchOptions orders by popularity and applies the page size.
func BuildSearchOptions(criteria models.SearchCriteria) *options.FindOptions {
	limit := criteria.Limit
	if limit <= 0 || limit > PageLimit {
		limit = PageLimit
	}
	return options.Find().
		SetSort(bson.D{{Key: "popularity", Value: -1}, {Key: "name", Value: 1}}).
		SetLimit(limit)
}
