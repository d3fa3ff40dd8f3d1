package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleBody struct {
	Message string `json:"message" validate:"required"`
	Day     string `json:"day" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		errText string
	}{
		{name: "valid", body: `{"message":"hi","day":"2025-03-01"}`},
		{name: "empty body", body: "", wantErr: ErrEmptyBody},
		{name: "trailing comma", body: `{"message":"hi",}`, errText: "invalid JSON body"},
		{name: "unknown field", body: `{"message":"hi","cron":"* * * * *"}`, errText: "unknown field"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var got scheduleBody

			err := DecodeJSON(httptest.NewRecorder(), req, &got)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				assert.ErrorContains(t, err, tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, "hi", got.Message)
			}
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	body := `{"message":"` + strings.Repeat("x", maxJSONBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var got scheduleBody
	err := DecodeJSON(httptest.NewRecorder(), req, &got)

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, err, &tooLarge)
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(scheduleBody{Message: "hi", Day: "2025-03-01"}))

	err := ValidateRequest(scheduleBody{Message: "hi"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Day", verrs[0].Field())

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.EqualError(t, ValidateRequest(selfValidating{}), "not ok")
}
