package model

import "platform-service/internal/tenancy"

// Compile-time checks that every tenant-owned model satisfies the tenancy
// marker interface; the plugin's allow-list in cmd/server must stay in
// step with this list.
var (
	_ tenancy.Entity = (*Page)(nil)
	_ tenancy.Entity = (*Product)(nil)
	_ tenancy.Entity = (*Booking)(nil)
	_ tenancy.Entity = (*Employee)(nil)
)
