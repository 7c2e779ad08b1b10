package authz

import (
	"platform-service/internal/model"
)

// PlatformTable is the static rule binding for the platform API. Entries
// are granted explicitly; anything the table does not cover is denied by
// the Guard. The category defaults require authentication for every query
// and mutation that has no more specific entry.
func PlatformTable() *Table {
	member := IsTenantMember()
	superAdmin := IsRole(model.RoleSuperAdmin)

	return NewTable().
		Default(Query, IsAuthenticated()).
		Default(Mutation, IsAuthenticated()).
		// A user's email is visible to that user and to platform admins.
		Field("User", "email", Or(IsSelf(), superAdmin)).
		// Tenant-scoped content requires an active membership.
		Operation(Query, "pages", member).
		Operation(Mutation, "pages.create", member).
		Operation(Mutation, "pages.update", member).
		Operation(Mutation, "pages.delete", member).
		Operation(Query, "products", member).
		Operation(Mutation, "products.create", member).
		Operation(Mutation, "products.upsert", member).
		Operation(Mutation, "products.update", member).
		Operation(Mutation, "products.delete", member).
		Operation(Query, "bookings", member).
		Operation(Mutation, "bookings.create", member).
		Operation(Mutation, "bookings.cancel", member).
		// HR records additionally require the hr:manage permission to mutate.
		Operation(Query, "employees", member).
		Operation(Mutation, "employees.create", And(member, HasPermission("hr:manage"))).
		Operation(Mutation, "employees.update", And(member, HasPermission("hr:manage"))).
		Operation(Mutation, "employees.delete", And(member, HasPermission("hr:manage"))).
		// Tenant management. Feature flags are platform-admin only.
		Operation(Query, "tenants", IsAuthenticated()).
		Operation(Mutation, "tenants.create", IsAuthenticated()).
		Operation(Mutation, "tenants.members.add", member).
		Operation(Mutation, "tenants.features", superAdmin).
		Operation(Mutation, "tenants.status", superAdmin).
		// Cross-tenant administrative reads.
		Operation(Query, "admin.pages", superAdmin).
		// Global catalog data is readable by any authenticated caller.
		Operation(Query, "currencies", IsAuthenticated())
}
