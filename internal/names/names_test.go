package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"john.doe@x.com", "John Doe"},
		{"a_b@x.com", "A B"},
		{"jane.roe@x.com", "Jane Roe"},
		{"JANE@x.com", "Jane"},
		{"first.middle_last@example.org", "First Middle Last"},
		{"solo", "Solo"},
		{"trailing.@x.com", "Trailing"},
		{"", ""},
		{"jane2doe@x.com", "Jane2Doe"},
		{"o'neil@x.com", "O'Neil"},
		{"mcDONALD@x.com", "Mcdonald"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromEmail(tt.email))
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Anne-Marie Smith", Title("  anne-marie   SMITH "))
	assert.Equal(t, "Élodie 3Rd", Title("élodie 3rd"))
	assert.Equal(t, "", Title("   "))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "john smith", Normalize("  John   Smith "))
	assert.Equal(t, "john smith", Normalize("john.smith"))
	assert.Equal(t, "", Normalize(""))
}

func BenchmarkFromEmail(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FromEmail("first.middle_last@example.org")
	}
}
