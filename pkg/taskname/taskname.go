package taskname

const (
	// Content tasks
	ContentDecided     = "content:decided"
	ContentExpirySweep = "content:expiry:sweep"

	// Business tasks
	BusinessReviewed = "business:reviewed"

	// Registration tasks
	RegistrationCreated = "registration:created"

	// Message tasks
	MessageReceived = "message:received"
)
