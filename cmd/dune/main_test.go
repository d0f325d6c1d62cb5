package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_splitStartupPrograms(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single program", input: "pwd", expect: []string{"pwd"}},
		{
			name:   "semicolon separated",
			input:  "ls; pwd",
			expect: []string{"ls", "pwd"},
		},
		{
			name:   "semicolon with no surrounding space",
			input:  "ls;pwd",
			expect: []string{"ls", "pwd"},
		},
		{
			name:   "multi-word program preserved",
			input:  `mkf "new file.txt"`,
			expect: []string{`mkf new file.txt`},
		},
		{
			name:   "quoted semicolon is not a separator",
			input:  `mkf "a;b.txt"; pwd`,
			expect: []string{"mkf a;b.txt", "pwd"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitStartupPrograms(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}
