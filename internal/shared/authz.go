package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"

	PermPermissionsView = "permissions.view"
)

// Domain feature permissions, one view/edit pair per feature plus the
// archive actions for archivable entities.
const (
	PermStaffView    = "staff.view"
	PermStaffEdit    = "staff.edit"
	PermStaffArchive = "staff.archive"

	PermHorsesView    = "horses.view"
	PermHorsesEdit    = "horses.edit"
	PermHorsesArchive = "horses.archive"

	PermRidersView    = "riders.view"
	PermRidersEdit    = "riders.edit"
	PermRidersArchive = "riders.archive"

	PermChargesView = "charges.view"
	PermChargesEdit = "charges.edit"

	PermPaymentsView = "payments.view"
	PermPaymentsEdit = "payments.edit"

	PermPublicationsView = "publications.view"
	PermPublicationsEdit = "publications.edit"

	PermMessagesView = "messages.view"
	PermMessagesEdit = "messages.edit"
)

// AllScopes lists every permission known to the platform, used by the
// seeder and the permission matrix page.
func AllScopes() []string {
	return []string{
		PermUsersView, PermUsersEdit,
		PermRolesView,
		PermPermissionsView,
		PermStaffView, PermStaffEdit, PermStaffArchive,
		PermHorsesView, PermHorsesEdit, PermHorsesArchive,
		PermRidersView, PermRidersEdit, PermRidersArchive,
		PermChargesView, PermChargesEdit,
		PermPaymentsView, PermPaymentsEdit,
		PermPublicationsView, PermPublicationsEdit,
		PermMessagesView, PermMessagesEdit,
	}
}
