package graph

import (
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Millisecond precision ISO-8601 in UTC, e.g. 2026-01-02T03:04:05.000Z
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// DateScalar is an ISO-8601 timestamp. Serializing anything other than a
// time.Time panics, which graphql-go turns into an error for that field only.
var DateScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Date",
	Description: "ISO-8601 timestamp",
	Serialize:   serializeDate,
	ParseValue:  parseDateValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		s, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		return parseDateValue(s.Value)
	},
})

func serializeDate(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(dateLayout)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(dateLayout)
	default:
		panic(fmt.Errorf("cannot serialize non-time value %v as Date", value))
	}
}

// parseDateValue returns nil for anything that is not an RFC 3339 string;
// graphql-go reports nil as an invalid value.
func parseDateValue(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return t
}
