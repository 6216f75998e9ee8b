package search

import (
	"strconv"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
)

// Project maps raw records to results. Fields are read under camelCase and
// snake_case spellings; a record without a user id gets "result-<index>".
func Project(recs []map[string]any) []models.Result {
	out := make([]models.Result, 0, len(recs))
	for i, rec := range recs {
		out = append(out, projectOne(rec, i))
	}
	return out
}

func projectOne(rec map[string]any, index int) models.Result {
	user, ok := rec["user"].(map[string]any)
	if !ok {
		user = rec
	}
	prof, ok := rec["profile"].(map[string]any)
	if !ok {
		prof = rec
	}

	id := scalar(first(user, "id", "_id", "userId", "user_id"))
	if id == "" {
		id = scalar(first(rec, "userId", "user_id", "id", "_id"))
	}
	if id == "" {
		id = "result-" + strconv.Itoa(index)
	}

	return models.Result{
		User: models.ResultUser{
			ID:    id,
			Email: scalar(first(user, "email")),
		},
		Profile: models.ResultProfile{
			FirstName:        scalar(first(prof, "firstName", "first_name")),
			LastName:         scalar(first(prof, "lastName", "last_name")),
			Gender:           scalar(first(prof, "gender")),
			Age:              number(first(prof, "age")),
			DateOfBirth:      scalar(first(prof, "dateOfBirth", "date_of_birth", "dob")),
			City:             scalar(first(prof, "city")),
			Country:          scalar(first(prof, "country")),
			Nationality:      scalar(first(prof, "nationality")),
			MaritalStatus:    scalar(first(prof, "maritalStatus", "marital_status")),
			Education:        scalar(first(prof, "education")),
			Occupation:       scalar(first(prof, "occupation")),
			ReligiosityLevel: scalar(first(prof, "religiosityLevel", "religiosity_level")),
			Height:           number(first(prof, "height")),
			About:            scalar(first(prof, "about", "bio")),
			PhotoURL:         scalar(first(prof, "photoUrl", "photo_url", "photoURL", "avatar")),
		},
	}
}
