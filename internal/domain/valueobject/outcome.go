package valueobject

// AuthOutcome is the result of checking a name and password.
type AuthOutcome string

const (
	AuthOutcomeAuthenticated AuthOutcome = "authenticated"
	AuthOutcomeUserNotFound  AuthOutcome = "user_not_found"
	AuthOutcomeWrongPassword AuthOutcome = "wrong_password"
)

// RegisterOutcome is the result of creating an account.
type RegisterOutcome string

const (
	RegisterOutcomeCreated      RegisterOutcome = "created"
	RegisterOutcomeNameTaken    RegisterOutcome = "name_taken"
	RegisterOutcomeEmailTaken   RegisterOutcome = "email_taken"
	RegisterOutcomeWeakPassword RegisterOutcome = "weak_password"
)

// UpdateOutcome is the result of changing an account.
type UpdateOutcome string

const (
	UpdateOutcomeUpdated       UpdateOutcome = "updated"
	UpdateOutcomeNotFound      UpdateOutcome = "not_found"
	UpdateOutcomeNameConflict  UpdateOutcome = "name_conflict"
	UpdateOutcomeEmailConflict UpdateOutcome = "email_conflict"
	UpdateOutcomeWeakPassword  UpdateOutcome = "weak_password"
)

// DeleteOutcome is the result of removing an account.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted  DeleteOutcome = "deleted"
	DeleteOutcomeNotFound DeleteOutcome = "not_found"
)
