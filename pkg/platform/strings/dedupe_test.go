package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"empty stays empty", []string{}, []string{}},
		{"broker list", []string{" kafka-1:9092", "kafka-2:9092 ", "kafka-1:9092"}, []string{"kafka-1:9092", "kafka-2:9092"}},
		{"blanks dropped", []string{"", "  ", "emergency_snack"}, []string{"emergency_snack"}},
		{"case preserved", []string{"Meals", "meals"}, []string{"Meals", "meals"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{
		"Nutri@Escola.example",
		" nutri@escola.example ",
		"",
		"diretoria@escola.example",
	})
	assert.Equal(t, []string{"nutri@escola.example", "diretoria@escola.example"}, got)
}
