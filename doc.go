// Package provision implements the account-provisioning core of a
// property-management backend: identity signup, idempotent profile
// persistence, structured audit logging, and role-based screen access.
//
// Provisioning:
//   - Provisioner.CreateAccount coordinates an identity-provider signup
//     with an idempotent profile upsert. Signups always run through a
//     fresh client from a SignupClientFactory so the caller's
//     authenticated session is never replaced or mutated.
//   - Partial failures are recoverable: if the identity was created but
//     the profile write failed, retrying CreateAccount converges via
//     ProfileStore.EnsureProfileExists, which treats "already exists"
//     as success.
//
// Audit log:
//   - AuditLog is a bounded in-process ring buffer of structured
//     entries (level, context, action, metadata, duration). Construct
//     one at startup and share it by reference; there is no hidden
//     package-level singleton. Consumers read with GetLogs,
//     GetRecentErrors, and ExportLogs.
//
// Access policy:
//   - HasScreenAccess and NavigationPermissions are pure functions over
//     an AccessContext. Roles and screens are closed enumerations with
//     exhaustive dispatch so new screens force a policy decision.
package provision
