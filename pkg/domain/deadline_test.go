package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Label(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{name: "description", rec: Record{Title: "ICML", Description: "Machine Learning"}, want: "Machine Learning"},
		{name: "empty description", rec: Record{Title: "ICML"}, want: "ICML"},
		{name: "blank description", rec: Record{Title: "ICML", Description: " \t"}, want: "ICML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Label())
		})
	}
}
