package models

// Filters is the sparse set of search criteria, keyed by filter name.
type Filters map[string]string

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ResultUser is the minimal identity projection of a search hit.
type ResultUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// ResultProfile is the display projection of a search hit's profile.
type ResultProfile struct {
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Age              int    `json:"age,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	City             string `json:"city,omitempty"`
	Country          string `json:"country,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	MaritalStatus    string `json:"maritalStatus,omitempty"`
	Education        string `json:"education,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	ReligiosityLevel string `json:"religiosityLevel,omitempty"`
	Height           int    `json:"height,omitempty"`
	About            string `json:"about,omitempty"`
	PhotoURL         string `json:"photoUrl,omitempty"`
}

// Result pairs a user projection with its profile projection.
type Result struct {
	User    ResultUser    `json:"user"`
	Profile ResultProfile `json:"profile"`
}

// Meta is the pagination block of a search response.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}
