package enums

type EmploymentStatus string

const (
	EmploymentStudent      EmploymentStatus = "Student"
	EmploymentFullTime     EmploymentStatus = "Employed full-time"
	EmploymentPartTime     EmploymentStatus = "Employed part-time"
	EmploymentSelfEmployed EmploymentStatus = "Self-employed/Freelancer"
	EmploymentBetweenJobs  EmploymentStatus = "Between jobs"
	EmploymentHomemaker    EmploymentStatus = "Homemaker"
	EmploymentRetired      EmploymentStatus = "Retired"
	EmploymentOther        EmploymentStatus = "Other"
)

func (s EmploymentStatus) Valid() bool {
	switch s {
	case EmploymentStudent, EmploymentFullTime, EmploymentPartTime,
		EmploymentSelfEmployed, EmploymentBetweenJobs, EmploymentHomemaker,
		EmploymentRetired, EmploymentOther:
		return true
	default:
		return false
	}
}

func AllEmploymentStatuses() []EmploymentStatus {
	return []EmploymentStatus{
		EmploymentStudent,
		EmploymentFullTime,
		EmploymentPartTime,
		EmploymentSelfEmployed,
		EmploymentBetweenJobs,
		EmploymentHomemaker,
		EmploymentRetired,
		EmploymentOther,
	}
}
