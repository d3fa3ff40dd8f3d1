package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Placeholders for required user fields missing from a row.
const (
	placeholderPhone = "0000000000"
	placeholderState = "Unknown"
	placeholderZip   = "00000"
)

// dateLayouts are tried in order for textual dates.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01-02-2006",
}

// Spreadsheet day numbers count from 1899-12-30. maxExcelSerial is 9999-12-31.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 2958465

// Gender and user type candidates in match order. Longer values that contain
// shorter ones come first.
var (
	genderMatchOrder   = []string{string(domain.GenderFemale), string(domain.GenderMale), string(domain.GenderOther)}
	userTypeMatchOrder = []string{
		string(domain.UserTypeIndividual),
		string(domain.UserTypeBusiness),
		string(domain.UserTypeFamily),
		string(domain.UserTypeCorporate),
	}
)

// PolicyFields holds the policy columns of a normalized record.
type PolicyFields struct {
	Number              string
	StartDate           time.Time
	EndDate             time.Time
	CollectionID        string
	CompanyCollectionID string
	PremiumAmount       decimal.Decimal
	CoverageAmount      decimal.Decimal
	Status              domain.PolicyStatus
	PaymentFrequency    domain.PaymentFrequency
}

// Record is the canonical form of one input row.
type Record struct {
	AgentName    string
	User         domain.UserDetails
	AccountName  string
	CategoryName string
	CarrierName  string
	Policy       PolicyFields
}

// Normalizer maps raw rows to Records. It never fails: missing or malformed
// values are replaced by deterministic defaults.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. now supplies "today" for date
// fallbacks and synthesized policy numbers; nil means time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize converts row, found at 1-based position, into a Record.
func (n *Normalizer) Normalize(row Row, position int) Record {
	now := n.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := parseDate(row.Lookup(FieldPolicyStartDate), today)
	end := parseDate(row.Lookup(FieldPolicyEndDate), start.AddDate(1, 0, 0))

	policyNumber := row.Lookup(FieldPolicyNumber)
	if policyNumber == "" {
		policyNumber = generatePolicyNumber(now)
	}

	state := orDefault(row.Lookup(FieldState), placeholderState)
	zip := orDefault(row.Lookup(FieldZipCode), placeholderZip)

	return Record{
		AgentName: row.Lookup(FieldAgentName),
		User: domain.UserDetails{
			FirstName:   orDefault(row.Lookup(FieldFirstName), fmt.Sprintf("User%d", position)),
			LastName:    row.Lookup(FieldLastName),
			DateOfBirth: parseDate(row.Lookup(FieldDateOfBirth), domain.DefaultDateOfBirth),
			Address: domain.Address{
				Street:  row.Lookup(FieldStreet),
				City:    row.Lookup(FieldCity),
				State:   row.Lookup(FieldState),
				ZipCode: row.Lookup(FieldZipCode),
			},
			PhoneNumber: orDefault(row.Lookup(FieldPhoneNumber), placeholderPhone),
			State:       state,
			ZipCode:     zip,
			Email:       orDefault(row.Lookup(FieldEmail), fmt.Sprintf("user%d@example.com", position)),
			Gender:      domain.Gender(matchEnum(row.Lookup(FieldGender), genderMatchOrder, string(domain.GenderOther))),
			UserType: domain.UserType(
				matchEnum(row.Lookup(FieldUserType), userTypeMatchOrder, string(domain.UserTypeIndividual)),
			),
		},
		AccountName:  row.Lookup(FieldAccountName),
		CategoryName: row.Lookup(FieldCategoryName),
		CarrierName:  row.Lookup(FieldCarrierName),
		Policy: PolicyFields{
			Number:              policyNumber,
			StartDate:           start,
			EndDate:             end,
			CollectionID:        row.Lookup(FieldCollectionID),
			CompanyCollectionID: row.Lookup(FieldCompanyCollectionID),
			PremiumAmount:       parseAmount(row.Lookup(FieldPremiumAmount)),
			CoverageAmount:      parseAmount(row.Lookup(FieldCoverageAmount)),
			Status:              normalizePolicyStatus(row.Lookup(FieldPolicyStatus)),
			PaymentFrequency:    normalizePaymentFrequency(row.Lookup(FieldPaymentFrequency)),
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// parseDate returns the calendar date encoded in v, or fallback when v is
// blank or unparsable.
func parseDate(v string, fallback time.Time) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= 1 && serial <= maxExcelSerial {
		return excelEpoch.AddDate(0, 0, int(serial))
	}

	return fallback
}

// parseAmount strips currency symbols, thousands separators and whitespace.
// Unparsable input yields zero.
func parseAmount(v string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case strings.ContainsRune("$,£€¥", r):
			return -1
		}
		return r
	}, v)

	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// matchEnum maps free text onto one of candidates, case-insensitively:
// exact match, then a candidate contained in the text, then a candidate
// starting with the text. fallback is returned when nothing matches.
func matchEnum(v string, candidates []string, fallback string) string {
	lower := strings.ToLower(strings.TrimSpace(v))
	if lower == "" {
		return fallback
	}

	for _, c := range candidates {
		if strings.EqualFold(c, lower) {
			return c
		}
	}
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			return c
		}
	}
	return fallback
}

// normalizePolicyStatus canonicalizes the case of a known status. Unknown
// text is kept verbatim so policy validation rejects the row.
func normalizePolicyStatus(v string) domain.PolicyStatus {
	if v == "" {
		return domain.PolicyStatusActive
	}
	for _, s := range domain.PolicyStatuses {
		if strings.EqualFold(string(s), v) {
			return s
		}
	}
	return domain.PolicyStatus(v)
}

func normalizePaymentFrequency(v string) domain.PaymentFrequency {
	if v == "" {
		return domain.PaymentFrequencyMonthly
	}
	for _, f := range domain.PaymentFrequencies {
		if strings.EqualFold(string(f), v) {
			return f
		}
	}
	return domain.PaymentFrequency(v)
}

// generatePolicyNumber returns POL + a second-resolution timestamp + 8 random
// hex characters.
func generatePolicyNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "POL" + now.UTC().Format("20060102150405") + strings.ToUpper(suffix)
}
