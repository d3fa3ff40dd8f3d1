package domain

// Gender of a policy holder.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists every valid Gender in match order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// IsValid reports whether g is a known gender.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// UserType classifies a policy holder.
type UserType string

const (
	UserTypeIndividual UserType = "Individual"
	UserTypeBusiness   UserType = "Business"
	UserTypeFamily     UserType = "Family"
	UserTypeCorporate  UserType = "Corporate"
)

// UserTypes lists every valid UserType in match order.
var UserTypes = []UserType{UserTypeIndividual, UserTypeBusiness, UserTypeFamily, UserTypeCorporate}

// IsValid reports whether t is a known user type.
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeIndividual, UserTypeBusiness, UserTypeFamily, UserTypeCorporate:
		return true
	}
	return false
}

// AccountType of a user account.
type AccountType string

const (
	AccountTypePrimary   AccountType = "Primary"
	AccountTypeSecondary AccountType = "Secondary"
	AccountTypeJoint     AccountType = "Joint"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypePrimary, AccountTypeSecondary, AccountTypeJoint:
		return true
	}
	return false
}

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "Active"
	PolicyStatusExpired   PolicyStatus = "Expired"
	PolicyStatusCancelled PolicyStatus = "Cancelled"
	PolicyStatusPending   PolicyStatus = "Pending"
)

// PolicyStatuses lists every valid PolicyStatus.
var PolicyStatuses = []PolicyStatus{
	PolicyStatusActive,
	PolicyStatusExpired,
	PolicyStatusCancelled,
	PolicyStatusPending,
}

// IsValid reports whether s is a known policy status.
func (s PolicyStatus) IsValid() bool {
	switch s {
	case PolicyStatusActive, PolicyStatusExpired, PolicyStatusCancelled, PolicyStatusPending:
		return true
	}
	return false
}

// PaymentFrequency is how often a premium is collected.
type PaymentFrequency string

const (
	PaymentFrequencyMonthly    PaymentFrequency = "Monthly"
	PaymentFrequencyQuarterly  PaymentFrequency = "Quarterly"
	PaymentFrequencySemiAnnual PaymentFrequency = "Semi-Annual"
	PaymentFrequencyAnnual     PaymentFrequency = "Annual"
)

// PaymentFrequencies lists every valid PaymentFrequency.
var PaymentFrequencies = []PaymentFrequency{
	PaymentFrequencyMonthly,
	PaymentFrequencyQuarterly,
	PaymentFrequencySemiAnnual,
	PaymentFrequencyAnnual,
}

// IsValid reports whether f is a known payment frequency.
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case PaymentFrequencyMonthly, PaymentFrequencyQuarterly, PaymentFrequencySemiAnnual, PaymentFrequencyAnnual:
		return true
	}
	return false
}
