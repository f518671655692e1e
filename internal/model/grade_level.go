package model

// GradeLevel is a named score threshold of one task object.
type GradeLevel struct {
	ID        int64   `json:"id"`
	ObjectID  int64   `json:"object_id"`
	Grade     string  `json:"grade"`
	MinPoints float64 `json:"min_points"`
	Passed    bool    `json:"passed"`
	Code      *string `json:"code,omitempty"`
}

// GradeLevelRequest is the payload for creating or editing a grade level.
type GradeLevelRequest struct {
	Grade     string   `json:"grade" binding:"required,min=1,max=50"`
	MinPoints *float64 `json:"min_points" binding:"required,finite,gte=0"`
	Passed    bool     `json:"passed"`
	Code      *string  `json:"code" binding:"omitempty,max=50"`
}

// ToGradeLevel builds the level for objectID. An empty code is stored as NULL.
func (r GradeLevelRequest) ToGradeLevel(objectID, id int64) GradeLevel {
	lvl := GradeLevel{
		ID:       id,
		ObjectID: objectID,
		Grade:    r.Grade,
		Passed:   r.Passed,
	}
	if r.MinPoints != nil {
		lvl.MinPoints = *r.MinPoints
	}
	if r.Code != nil && *r.Code != "" {
		code := *r.Code
		lvl.Code = &code
	}
	return lvl
}
