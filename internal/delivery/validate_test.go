package delivery

import (
	"errors"
	"testing"

	"github.com/abhimit04/job-new-agent/internal/model"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		want    string
		wantErr bool
	}{
		{"simple", "user@example.com", "user@example.com", false},
		{"subdomain", "a.b@mail.example.co.uk", "a.b@mail.example.co.uk", false},
		{"trims whitespace", "  user@example.com \n", "user@example.com", false},
		{"plus tag", "user+jobs@example.com", "user+jobs@example.com", false},
		{"not an email", "not-an-email", "", true},
		{"missing tld", "user@localhost", "", true},
		{"missing local part", "@example.com", "", true},
		{"embedded space", "us er@example.com", "", true},
		{"double at", "a@b@example.com", "", true},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAddress(tt.addr)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidRecipient) {
					t.Fatalf("expected ErrInvalidRecipient, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
