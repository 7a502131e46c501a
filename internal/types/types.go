// README: Common identifier and identity types shared across modules.
package types

// ID is an opaque store-assigned identifier.
type ID string

// Identity is the resolved caller identity supplied by the external
// identity provider. The core treats it as already verified.
type Identity struct {
	CustomerID ID
	Admin      bool
	Delegate   bool
	SuperAdmin bool
}

// CanOperate reports whether the identity may mutate order state on
// behalf of the service side (delegate/driver or admin paths).
func (i Identity) CanOperate() bool {
	return i.Admin || i.Delegate || i.SuperAdmin
}
