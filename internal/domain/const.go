package domain

// RequesterCtxKey holds the authenticated UserTokenData in the echo context.
const RequesterCtxKey = "portal-requester"

const (
	DefaultCasesPage     = 1
	DefaultCasesLimit    = 20
	DefaultCasesSort     = "updated_at_desc"
	MaxCasesPage         = 500
	MaxPageLimit         = 100
	DefaultMessagesPage  = 1
	DefaultMessagesLimit = 100
	DefaultMessagesOrder = "asc"
	DefaultActivityLimit = 20
)
