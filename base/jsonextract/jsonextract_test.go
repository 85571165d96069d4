package jsonextract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_FirstObject(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		desc  string
		in    string
		exp   string
		expOk bool
	}{
		{
			desc:  "plain object",
			in:    `{"a":1}`,
			exp:   `{"a":1}`,
			expOk: true,
		},
		{
			desc:  "object with leading prose",
			in:    "Sure, here is the forecast:\n{\"predictions\":[{\"price\":1.5}]}\nHope that helps!",
			exp:   `{"predictions":[{"price":1.5}]}`,
			expOk: true,
		},
		{
			desc:  "markdown fenced",
			in:    "```json\n{\"a\":{\"b\":2}}\n```",
			exp:   `{"a":{"b":2}}`,
			expOk: true,
		},
		{
			desc:  "brace inside string",
			in:    `{"note":"has a } inside","a":1} trailing`,
			exp:   `{"note":"has a } inside","a":1}`,
			expOk: true,
		},
		{
			desc:  "escaped quote inside string",
			in:    `{"note":"quote \" then } brace","a":1}`,
			exp:   `{"note":"quote \" then } brace","a":1}`,
			expOk: true,
		},
		{
			desc:  "no json at all",
			in:    "the market feels bullish today",
			expOk: false,
		},
		{
			desc:  "unbalanced",
			in:    `{"a":{"b":1}`,
			expOk: false,
		},
	}

	for _, tc := range tests {
		out, err := FirstObject(tc.in)
		if !tc.expOk {
			req.Error(err, tc.desc)
			continue
		}
		req.NoError(err, tc.desc)
		req.Equal(tc.exp, out, tc.desc)
		req.True(json.Valid([]byte(out)), tc.desc)
	}
}
