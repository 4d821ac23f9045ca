package query

// Condition is one predicate of a WHERE clause.
type Condition struct {
	field    string
	operator string
	value    any
	logic    string
}

// Field returns the column the condition applies to.
func (c Condition) Field() string { return c.field }

// Operator returns the SQL comparison operator.
func (c Condition) Operator() string { return c.operator }

// Value returns the bound value (a []any for IN).
func (c Condition) Value() any { return c.value }

// Logic returns "AND" or "OR": how the condition joins the one before it.
func (c Condition) Logic() string { return c.logic }

func cond(field, op string, value any) Condition {
	return Condition{field: field, operator: op, value: value, logic: "AND"}
}

// Eq creates a condition for checking equality. A nil value compiles to IS NULL.
func Eq(field string, value any) Condition {
	if value == nil {
		return IsNull(field)
	}
	return cond(field, "=", value)
}

// Neq creates a condition for checking inequality. A nil value compiles to IS NOT NULL.
func Neq(field string, value any) Condition {
	if value == nil {
		return cond(field, "IS NOT NULL", nil)
	}
	return cond(field, "!=", value)
}

// Gt creates a condition for checking if a value is greater than another.
func Gt(field string, value any) Condition { return cond(field, ">", value) }

// Gte creates a condition for checking if a value is greater than or equal to another.
func Gte(field string, value any) Condition { return cond(field, ">=", value) }

// Lt creates a condition for checking if a value is less than another.
func Lt(field string, value any) Condition { return cond(field, "<", value) }

// Lte creates a condition for checking if a value is less than or equal to another.
func Lte(field string, value any) Condition { return cond(field, "<=", value) }

// Like creates a condition for checking if a value matches a pattern.
func Like(field string, pattern string) Condition { return cond(field, "LIKE", pattern) }

// In creates a membership condition. An empty list matches nothing.
func In(field string, values ...any) Condition { return cond(field, "IN", values) }

// IsNull matches NULL values of field.
func IsNull(field string) Condition { return cond(field, "IS NULL", nil) }

// Or creates a condition with OR logic.
func Or(c Condition) Condition {
	c.logic = "OR"
	return c
}
