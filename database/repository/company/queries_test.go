package companyRepo

import (
	"testing"

	"senadirectory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildSearchFilter_FreeTextIsOrOverFields(t *testing.T) {
	filter := BuildSearchFilter(models.SearchCriteria{Query: "psy"})

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 4)

	fields := []string{}
	for _, clause := range or {
		m := clause.(bson.M)
		for k, v := range m {
			fields = append(fields, k)
			assert.Equal(t, bson.M{"$regex": "psy", "$options": "i"}, v)
		}
	}
	assert.ElementsMatch(t, []string{"name", "specialty", "city", "shortDescription"}, fields)
	assert.Len(t, filter, 1)
}

func TestBuildSearchFilter_FiltersAreAnded(t *testing.T) {
	filter := BuildSearchFilter(models.SearchCriteria{
		Query: "ana",
		SearchFilters: models.SearchFilters{
			Category:  "health",
			Specialty: "Psicología",
			City:      "Bogotá",
		},
	})

	assert.Contains(t, filter, "$or")
	assert.Equal(t, "health", filter["category"])
	assert.Equal(t, bson.M{"$regex": "Psicología", "$options": "i"}, filter["specialty"])
	assert.Equal(t, bson.M{"$regex": "Bogotá", "$options": "i"}, filter["city"])
}

func TestBuildSearchFilter_EscapesRegex(t *testing.T) {
	filter := BuildSearchFilter(models.SearchCriteria{SearchFilters: models.SearchFilters{City: "a.b*"}})
	assert.Equal(t, bson.M{"$regex": `a\.b\*`, "$options": "i"}, filter["city"])
}

func TestBuildSearchFilter_Empty(t *testing.T) {
	assert.Empty(t, BuildSearchFilter(models.SearchCriteria{Query: "   "}))
}

func TestBuildSearchOptions(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  int64
	}{
		{"inline", InlineLimit, 10},
		{"page", PageLimit, 50},
		{"unset", 0, 50},
		{"too large", 500, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildSearchOptions(models.SearchCriteria{Limit: tt.limit})
			require.NotNil(t, opts.Limit)
			assert.Equal(t, tt.want, *opts.Limit)
			assert.Equal(t, bson.D{{Key: "popularity", Value: -1}, {Key: "name", Value: 1}}, opts.Sort)
		})
	}
}
