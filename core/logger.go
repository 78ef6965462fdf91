package core

// Logger logs messages and reports errors.
// args may hold an error, a map[string]interface{} of extras or the user involved.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
