// Package esql renders chains as ES|QL query text.
package esql

import (
	"strings"

	"github.com/razeghi71/esqlchain/value"
)

// inListThreshold is the number of special values above which individual
// comparisons collapse into a single IN list.
const inListThreshold = 2

// Clause builds a boolean expression over field. Every value passes the
// expression when defaultIncluded is set, except the special values (and
// null when nullIsSpecial); otherwise only those pass.
//
// A result of "true" means the expression filters nothing and the caller
// should omit the stage.
func Clause(field value.Column, defaultIncluded bool, special []value.Value, nullIsSpecial bool) string {
	connector := " OR "
	if defaultIncluded {
		connector = " AND "
	}
	name := value.Escape(field.Name)

	var clauses []string
	if nullIsSpecial {
		if defaultIncluded {
			clauses = append(clauses, name+" IS NOT NULL")
		} else {
			clauses = append(clauses, name+" IS NULL")
		}
	}

	switch field.Class() {
	case value.ClassGeo:
		// geo fields have no equality operator
		fn := "ST_WITHIN"
		if defaultIncluded {
			fn = "ST_DISJOINT"
		}
		for _, v := range special {
			clauses = append(clauses, fn+"("+name+", "+value.Represent(v, &field)+")")
		}
	case value.ClassBoolean:
		for _, v := range special {
			if v == value.Bool(defaultIncluded) {
				clauses = append(clauses, "NOT "+name)
			} else {
				clauses = append(clauses, name)
			}
		}
	default:
		if len(special) > inListThreshold {
			literals := make([]string, len(special))
			for i, v := range special {
				literals[i] = value.Represent(v, &field)
			}
			op := " IN ("
			if defaultIncluded {
				op = " NOT IN ("
			}
			clauses = append(clauses, name+op+strings.Join(literals, ", ")+")")
			break
		}
		op := " == "
		if defaultIncluded {
			op = " != "
		}
		for _, v := range special {
			clauses = append(clauses, name+op+value.Represent(v, &field))
		}
	}

	if len(clauses) == 0 {
		if defaultIncluded {
			return "true"
		}
		return "false"
	}
	return strings.Join(clauses, connector)
}
