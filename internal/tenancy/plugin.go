package tenancy

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantColumn is the database column carrying the owning tenant on every
// tenant-owned table.
const TenantColumn = "tenant_id"

// Entity marks a model as tenant-owned. Only marked models can be placed
// on the plugin's allow-list, so the list is checkable at compile time.
type Entity interface {
	TenantScoped()
}

// Plugin rewrites every gorm operation against the registered tenant-owned
// tables so the bound tenant's boundary cannot be crossed:
//
//   - queries, row scans, updates and deletes get "tenant_id = ?" ANDed
//     onto whatever conditions the caller supplied
//   - creates (single, batch, upsert) get the bound tenant forced into the
//     persisted payload, overriding any caller-supplied value
//   - the DO UPDATE half of an upsert may only touch rows of the bound
//     tenant and never reassigns tenant_id
//
// Tables outside the allow-list pass through untouched. Raw SQL bypasses
// the statement builder and is not covered; tenant-owned tables must not
// be accessed through Raw/Exec.
//
// The plugin itself adds no error kinds beyond the two fail-closed
// sentinels in context.go; database errors propagate unchanged.
type Plugin struct {
	entities []Entity
	tables   map[string]bool
}

// New builds the plugin with the closed allow-list of tenant-owned models.
func New(entities ...Entity) *Plugin {
	return &Plugin{entities: entities, tables: map[string]bool{}}
}

// Name implements gorm.Plugin.
func (p *Plugin) Name() string {
	return "tenancy"
}

// Initialize implements gorm.Plugin. It resolves the table name of every
// registered model and hooks the callback chain of each operation kind.
func (p *Plugin) Initialize(db *gorm.DB) error {
	for _, entity := range p.entities {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(entity); err != nil {
			return fmt.Errorf("tenancy: failed to parse model %T: %w", entity, err)
		}
		if stmt.Schema.LookUpField(TenantColumn) == nil {
			return fmt.Errorf("tenancy: model %T has no %s column", entity, TenantColumn)
		}
		p.tables[stmt.Schema.Table] = true
	}

	if err := db.Callback().Query().Before("gorm:query").Register("tenancy:query", p.scopeQuery); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenancy:row", p.scopeQuery); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenancy:update", p.scopeUpdate); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenancy:delete", p.scopeDelete); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("gorm:create").Register("tenancy:create", p.scopeCreate); err != nil {
		return err
	}
	return nil
}

// Tables returns the allow-listed table names. Used by tests and startup
// logging.
func (p *Plugin) Tables() []string {
	names := make([]string, 0, len(p.tables))
	for name := range p.tables {
		names = append(names, name)
	}
	return names
}

// resolve decides whether the current statement needs scoping and under
// which tenant. It fails the statement closed when a tenant-owned table is
// touched without a usable binding.
func (p *Plugin) resolve(db *gorm.DB) (uint, bool) {
	if db.Error != nil {
		return 0, false
	}

	stmt := db.Statement
	if stmt.Table == "" || !p.tables[stmt.Table] {
		return 0, false
	}

	b, ok := FromContext(stmt.Context)
	if !ok {
		_ = db.AddError(ErrNoTenantBinding)
		return 0, false
	}
	if b.Unscoped {
		if b.TenantID != 0 {
			_ = db.AddError(ErrUnscopedTenantSession)
		}
		return 0, false
	}
	if b.TenantID == 0 {
		_ = db.AddError(ErrNoTenantBinding)
		return 0, false
	}
	return b.TenantID, true
}

// addTenantCondition ANDs the tenant equality onto the statement's WHERE
// clause. Caller-supplied conditions are preserved.
func addTenantCondition(db *gorm.DB, tenantID uint) {
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: TenantColumn},
			Value:  tenantID,
		},
	}})
}

func (p *Plugin) scopeQuery(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	addTenantCondition(db, tenantID)
}

func (p *Plugin) scopeDelete(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	addTenantCondition(db, tenantID)
}

func (p *Plugin) scopeUpdate(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	addTenantCondition(db, tenantID)

	// The tenant column is immutable: whatever value the caller put in the
	// update payload is replaced with the bound tenant. Combined with the
	// injected condition this makes re-homing a row impossible.
	stmt := db.Statement
	switch dest := stmt.Dest.(type) {
	case map[string]interface{}:
		delete(dest, "TenantID")
		dest[TenantColumn] = tenantID
	default:
		if stmt.Schema == nil {
			return
		}
		field := stmt.Schema.LookUpField(TenantColumn)
		if field == nil {
			return
		}
		rv := reflect.Indirect(reflect.ValueOf(stmt.Dest))
		if rv.Kind() == reflect.Struct {
			if !rv.CanAddr() {
				// Updates(Article{...}) passes the struct by value; work on
				// an addressable copy and swap it in.
				ptr := reflect.New(rv.Type())
				ptr.Elem().Set(rv)
				rv = ptr.Elem()
				stmt.Dest = ptr.Interface()
			}
			_ = field.Set(stmt.Context, rv, tenantID)
		}
	}
}

func (p *Plugin) scopeCreate(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}

	stmt := db.Statement
	switch dest := stmt.Dest.(type) {
	case map[string]interface{}:
		delete(dest, "TenantID")
		dest[TenantColumn] = tenantID
	case []map[string]interface{}:
		for _, row := range dest {
			delete(row, "TenantID")
			row[TenantColumn] = tenantID
		}
	default:
		p.forceStructPayload(db, tenantID)
	}

	p.scopeOnConflict(db, tenantID)
}

// forceStructPayload writes the bound tenant into every row about to be
// inserted, for single structs and batch slices alike.
func (p *Plugin) forceStructPayload(db *gorm.DB, tenantID uint) {
	stmt := db.Statement
	if stmt.Schema == nil {
		return
	}
	field := stmt.Schema.LookUpField(TenantColumn)
	if field == nil {
		return
	}

	switch stmt.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < stmt.ReflectValue.Len(); i++ {
			rv := stmt.ReflectValue.Index(i)
			if rv.Kind() == reflect.Ptr {
				rv = rv.Elem()
			}
			_ = field.Set(stmt.Context, rv, tenantID)
		}
	case reflect.Struct:
		_ = field.Set(stmt.Context, stmt.ReflectValue, tenantID)
	}
}

// scopeOnConflict constrains the DO UPDATE half of an upsert. The insert
// half already carries the bound tenant via the forced payload; here the
// conflict update is restricted to rows of the bound tenant and stripped
// of any tenant reassignment. A conflicting row owned by another tenant is
// therefore left untouched.
func (p *Plugin) scopeOnConflict(db *gorm.DB, tenantID uint) {
	stmt := db.Statement
	c, ok := stmt.Clauses["ON CONFLICT"]
	if !ok {
		return
	}
	onConflict, ok := c.Expression.(clause.OnConflict)
	if !ok {
		return
	}
	if onConflict.DoNothing {
		return
	}

	if onConflict.UpdateAll && stmt.Schema != nil {
		// Expand UpdateAll ourselves so tenant_id can be excluded.
		columns := make([]string, 0, len(stmt.Schema.DBNames))
		for _, dbName := range stmt.Schema.DBNames {
			f := stmt.Schema.LookUpField(dbName)
			if dbName == TenantColumn || (f != nil && f.PrimaryKey) {
				continue
			}
			columns = append(columns, dbName)
		}
		onConflict.UpdateAll = false
		onConflict.DoUpdates = clause.AssignmentColumns(columns)
	}

	assignments := make(clause.Set, 0, len(onConflict.DoUpdates))
	for _, assignment := range onConflict.DoUpdates {
		if assignment.Column.Name == TenantColumn {
			continue
		}
		assignments = append(assignments, assignment)
	}
	onConflict.DoUpdates = assignments

	onConflict.Where.Exprs = append(onConflict.Where.Exprs, clause.Eq{
		Column: clause.Column{Table: stmt.Table, Name: TenantColumn},
		Value:  tenantID,
	})

	c.Expression = onConflict
	stmt.Clauses["ON CONFLICT"] = c
}
