package split

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		delimiter string
		want      []string
	}{
		{"Empty text", "", "", []string{}},
		{"Delimiter only", "go", "", []string{}},
		{"Repeated delimiters", "gogogo", "go", []string{}},
		{"Whitespace fragments", "\ngo\n  go\t", "go", []string{}},
		{"Single statement", "select 1", "go", []string{"select 1"}},
		{"Two statements", "select 1\ngo\nselect 2", "go", []string{"select 1\n", "\nselect 2"}},
		{"Default delimiter", "select 1 go select 2", "", []string{"select 1 ", " select 2"}},
		{"Case sensitive", "select 1 GO select 2", "go", []string{"select 1 GO select 2"}},
		{"Custom delimiter", "select 1;select 2;", ";", []string{"select 1", "select 2"}},
		{"Delimiter in literal", "select 'gopher'", "go", []string{"select '", "pher'"}},
		{"Delimiter in identifier", "select category from t", "go", []string{"select cate", "ry from t"}},
		{"Delimiter in comment", "-- go away\nselect 1", "go", []string{"-- ", " away\nselect 1"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Split(c.text, c.delimiter))
		})
	}
}

func TestSplitRoundTrip(t *testing.T) {
	lists := [][]string{
		{"select 1"},
		{"select 1", "select 2"},
		{"create table t (id int)", "insert into t values (1)", "select * from t"},
		{" leading", "trailing ", "\nnewlines\n"},
	}

	for _, statements := range lists {
		assert.Equal(t, statements, Split(strings.Join(statements, DefaultDelimiter), DefaultDelimiter))
	}
}
