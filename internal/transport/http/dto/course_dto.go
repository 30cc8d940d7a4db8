package dto

type CourseResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	Category     string  `json:"category"`
	Accessible   bool    `json:"accessible"`
	MaterialsURL *string `json:"materials_url,omitempty"`
}

type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

type CourseAccessResponse struct {
	CourseID   int64 `json:"course_id"`
	Accessible bool  `json:"accessible"`
}
