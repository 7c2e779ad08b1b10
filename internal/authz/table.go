package authz

import "fmt"

// Category of a top-level operation.
type Category string

const (
	Query    Category = "query"
	Mutation Category = "mutation"
)

// FieldKey addresses a rule bound to a type's field.
type FieldKey struct {
	Type  string
	Field string
}

// OperationKey addresses a rule bound to a top-level operation.
type OperationKey struct {
	Category Category
	Name     string
}

// Operation identifies what is being authorized. Either Type/Field or
// Category/Name addressing is used, depending on where the check runs.
type Operation struct {
	Category Category
	Name     string
	Type     string
	Field    string
}

// Path renders the operation for denial messages and logs.
func (op Operation) Path() string {
	if op.Type != "" && op.Field != "" {
		return fmt.Sprintf("%s.%s", op.Type, op.Field)
	}
	return fmt.Sprintf("%s:%s", op.Category, op.Name)
}

// Table is the static, code-defined rule binding. Resolution order: exact
// field or operation match, then the category's default rule. Anything
// still unresolved is denied by the Guard; there is no allow fallback.
type Table struct {
	fields     map[FieldKey]Rule
	operations map[OperationKey]Rule
	defaults   map[Category]Rule
}

// NewTable creates an empty rule table.
func NewTable() *Table {
	return &Table{
		fields:     map[FieldKey]Rule{},
		operations: map[OperationKey]Rule{},
		defaults:   map[Category]Rule{},
	}
}

// Field binds a rule to a type's field.
func (t *Table) Field(typeName, fieldName string, r Rule) *Table {
	t.fields[FieldKey{Type: typeName, Field: fieldName}] = r
	return t
}

// Operation binds a rule to a top-level operation.
func (t *Table) Operation(category Category, name string, r Rule) *Table {
	t.operations[OperationKey{Category: category, Name: name}] = r
	return t
}

// Default sets the category's default rule, applied when no exact entry
// matches. This is an explicit field of the table, not a wildcard key that
// could collide with a real operation name.
func (t *Table) Default(category Category, r Rule) *Table {
	t.defaults[category] = r
	return t
}

// Resolve returns the rule for the operation, or false when nothing
// matches and the caller must fall back to deny.
func (t *Table) Resolve(op Operation) (Rule, bool) {
	if op.Type != "" && op.Field != "" {
		if r, ok := t.fields[FieldKey{Type: op.Type, Field: op.Field}]; ok {
			return r, true
		}
	}
	if op.Name != "" {
		if r, ok := t.operations[OperationKey{Category: op.Category, Name: op.Name}]; ok {
			return r, true
		}
	}
	if r, ok := t.defaults[op.Category]; ok {
		return r, true
	}
	return nil, false
}
