package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{"defaults", ListParams{}, ListParams{Page: 1, Limit: 10, Order: "DESC"}},
		{"lowercase order", ListParams{Page: 3, Limit: 5, Order: "asc"}, ListParams{Page: 3, Limit: 5, Order: "ASC"}},
		{"limit capped", ListParams{Page: 1, Limit: 500}, ListParams{Page: 1, Limit: 100, Order: "DESC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.want, p)
		})
	}
}
