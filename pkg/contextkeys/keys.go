package contextkeys

type contextKey string

const (
	CallerKey contextKey = "Caller"
)
