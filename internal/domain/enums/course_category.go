package enums

type CourseCategory string

const (
	CourseCategoryFree       CourseCategory = "free"
	CourseCategoryAlacarte   CourseCategory = "alacarte"
	CourseCategoryUnique     CourseCategory = "unique"
	CourseCategoryCurriculum CourseCategory = "curriculum"
)

// IsPerItem reports whether access to the category is bound to one specific
// product rather than to the category as a whole.
func (c CourseCategory) IsPerItem() bool {
	return c == CourseCategoryAlacarte || c == CourseCategoryUnique
}

func (c CourseCategory) Valid() bool {
	switch c {
	case CourseCategoryFree, CourseCategoryAlacarte, CourseCategoryUnique, CourseCategoryCurriculum:
		return true
	default:
		return false
	}
}
