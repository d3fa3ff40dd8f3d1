package ingest

import "strings"

// Field is a logical input column.
type Field string

// Logical fields recognized in import files.
const (
	FieldAgentName           Field = "agent_name"
	FieldFirstName           Field = "first_name"
	FieldLastName            Field = "last_name"
	FieldDateOfBirth         Field = "date_of_birth"
	FieldStreet              Field = "street"
	FieldCity                Field = "city"
	FieldState               Field = "state"
	FieldZipCode             Field = "zip_code"
	FieldPhoneNumber         Field = "phone_number"
	FieldEmail               Field = "email"
	FieldGender              Field = "gender"
	FieldUserType            Field = "user_type"
	FieldAccountName         Field = "account_name"
	FieldCategoryName        Field = "category_name"
	FieldCarrierName         Field = "company_name"
	FieldPolicyNumber        Field = "policy_number"
	FieldPolicyStartDate     Field = "policy_start_date"
	FieldPolicyEndDate       Field = "policy_end_date"
	FieldCollectionID        Field = "collection_id"
	FieldCompanyCollectionID Field = "company_collection_id"
	FieldPremiumAmount       Field = "premium_amount"
	FieldCoverageAmount      Field = "coverage_amount"
	FieldPolicyStatus        Field = "status"
	FieldPaymentFrequency    Field = "payment_frequency"
)

// fieldAliases lists, per logical field, the source column names accepted in
// priority order. The first alias with a non-blank value wins.
var fieldAliases = map[Field][]string{
	FieldAgentName:           {"Agent Name", "agentName", "agent_name"},
	FieldFirstName:           {"User First Name", "firstName", "first_name", "firstname"},
	FieldLastName:            {"User Last Name", "lastName", "last_name", "lastname"},
	FieldDateOfBirth:         {"DOB", "dateOfBirth", "date_of_birth", "dob"},
	FieldStreet:              {"Address", "address", "street"},
	FieldCity:                {"City", "city"},
	FieldState:               {"State", "state"},
	FieldZipCode:             {"Zip Code", "zipCode", "zip_code", "zip"},
	FieldPhoneNumber:         {"Phone Number", "phoneNumber", "phone_number", "phone"},
	FieldEmail:               {"Email", "email"},
	FieldGender:              {"Gender", "gender"},
	FieldUserType:            {"User Type", "userType", "user_type"},
	FieldAccountName:         {"Account Name", "accountName", "account_name"},
	FieldCategoryName:        {"Policy Category Name", "categoryName", "category_name", "Policy Category"},
	FieldCarrierName:         {"Carrier Company Name", "companyName", "company_name", "Carrier"},
	FieldPolicyNumber:        {"Policy Number", "policyNumber", "policy_number"},
	FieldPolicyStartDate:     {"Policy Start Date", "policyStartDate", "policy_start_date"},
	FieldPolicyEndDate:       {"Policy End Date", "policyEndDate", "policy_end_date"},
	FieldCollectionID:        {"Collection ID", "collectionId", "collection_id"},
	FieldCompanyCollectionID: {"Company Collection ID", "companyCollectionId", "company_collection_id"},
	FieldPremiumAmount:       {"Premium Amount", "premiumAmount", "premium_amount"},
	FieldCoverageAmount:      {"Coverage Amount", "coverageAmount", "coverage_amount"},
	FieldPolicyStatus:        {"Status", "status"},
	FieldPaymentFrequency:    {"Payment Frequency", "paymentFrequency", "payment_frequency"},
}

// Aliases returns the accepted source column names for f.
func Aliases(f Field) []string {
	return append([]string(nil), fieldAliases[f]...)
}

// Row is one decoded input record keyed by source column name.
type Row map[string]string

// Lookup returns the trimmed value of the first alias of f present in the
// row with a non-blank value.
func (r Row) Lookup(f Field) string {
	for _, alias := range fieldAliases[f] {
		if v := strings.TrimSpace(r[alias]); v != "" {
			return v
		}
	}
	return ""
}
