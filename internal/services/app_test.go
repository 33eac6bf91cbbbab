package services

import "testing"

func TestValidateTriggerConfig(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"complete config", `{"provider":"gitlab","base_url":"https://ci.example.com","project_id":"42","token":"t","ref":"main"}`, false},
		{"ref optional", `{"base_url":"https://ci.example.com","project_id":"42"}`, false},
		{"not json", "not-json", true},
		{"missing base_url", `{"project_id":"42"}`, true},
		{"missing project_id", `{"base_url":"https://ci.example.com"}`, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateTriggerConfig(c.raw)
			if (err != nil) != c.wantErr {
				t.Errorf("validateTriggerConfig(%q) error = %v, wantErr %v", c.raw, err, c.wantErr)
			}
		})
	}
}
