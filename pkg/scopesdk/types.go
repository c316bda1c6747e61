package scopesdk

// ============================================================================
// Authentication
// ============================================================================

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionKey string `json:"session_key"`
}

// ============================================================================
// Experimenters and groups
// ============================================================================

// Experimenter is the server's term for a user account record.
type Experimenter struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
}

// Group is an access-control grouping that accounts belong to.
type Group struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

// NewExperimenter is the payload for creating an experimenter record.
type NewExperimenter struct {
	Login       string `json:"login"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
	Password    string `json:"password"`

	// DefaultGroupID is the group new data is placed in; GroupIDs lists any
	// additional memberships.
	DefaultGroupID int64   `json:"default_group_id"`
	GroupIDs       []int64 `json:"group_ids"`

	IsAdmin  bool `json:"is_admin"`
	IsActive bool `json:"is_active"`
}

type newGroupRequest struct {
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type experimenterListResponse struct {
	Data []Experimenter `json:"data"`
}

type groupListResponse struct {
	Data []Group `json:"data"`
}

// ============================================================================
// Notifications
// ============================================================================

// EmailRequest describes a notification to deliver to a set of recipients.
type EmailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`

	UserIDs  []int64 `json:"user_ids,omitempty"`
	GroupIDs []int64 `json:"group_ids,omitempty"`

	// Everyone expands the recipient list to all active accounts; Inactive
	// additionally includes deactivated ones.
	Everyone bool `json:"everyone"`
	Inactive bool `json:"inactive"`
}

// EmailOutcome reports the result of a completed notification job.
type EmailOutcome struct {
	// Invalid lists recipient addresses the server rejected. The job itself
	// completed; delivery to these addresses did not happen.
	Invalid []string `json:"invalid_addresses"`
}

type notificationSubmitResponse struct {
	JobID string `json:"job_id"`
}

type notificationStatusResponse struct {
	Status           string   `json:"status"`
	InvalidAddresses []string `json:"invalid_addresses"`
	Error            string   `json:"error"`
}

// Notification job states reported by the server.
const (
	jobStatusQueued    = "queued"
	jobStatusRunning   = "running"
	jobStatusCompleted = "completed"
	jobStatusFailed    = "failed"
)
