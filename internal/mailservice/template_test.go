package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplate(t *testing.T) {
	template := NewTemplate()

	testCases := []struct {
		name         string
		templateName string
		data         any
		wantSubject  string
		wantInBody   string
		expectedErr  bool
	}{
		{
			name:         "activation",
			templateName: "activation_email.html",
			data:         activationEmailData{ActivationToken: "ABCDEF"},
			wantSubject:  "Activate your account",
			wantInBody:   "ABCDEF",
		},
		{
			name:         "access granted",
			templateName: "access_granted_email.html",
			data:         accessGrantedEmailData{Username: "bob", BlogID: 7, BlogTitle: "X", Permission: "Watch Only"},
			wantSubject:  `You have been given access to "X"`,
			wantInBody:   "Watch Only",
		},
		{
			name:         "invalid template name",
			templateName: "invalid_template.html",
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, p, h, err := template.ParseTemplate(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)

			if err == nil {
				assert.Equal(t, tc.wantSubject, s.String())
				assert.Contains(t, p.String(), tc.wantInBody)
				assert.Contains(t, h.String(), tc.wantInBody)
			}
		})
	}
}
