package core

// Logger is the logging contract shared by the apps.
// expected args fmt: error | map[string]interface{} | student.Student (the current person)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
