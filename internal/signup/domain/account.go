package domain

// GroupDescriptor describes the group that new signups are placed in.
// When Templated is true, Name is a Go time layout (reference time
// "2006-01-02") expanded at resolution time, so group identity depends on
// when resolution happens. A name like "signups 2006-01" buckets new
// accounts by month.
type GroupDescriptor struct {
	Name        string
	Permissions string
	Templated   bool
}

// ProvisionedAccount is the outcome of a successful provisioning run.
// Ownership of the underlying account lives entirely on the remote server;
// this value exists only long enough to render or notify.
type ProvisionedAccount struct {
	Login   string
	Email   string
	GroupID int64
	UserID  int64

	// Password is set only when email notification is disabled. Once the
	// credentials have been emailed the password is cleared and must not
	// be surfaced in any response.
	Password string
}
