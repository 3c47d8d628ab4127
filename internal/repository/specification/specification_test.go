package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeEscaper(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "三体", want: "三体"},
		{in: "100%", want: `100\%`},
		{in: "a_b", want: `a\_b`},
		{in: `c:\books`, want: `c:\\books`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likeEscaper.Replace(tt.in))
		})
	}
}
