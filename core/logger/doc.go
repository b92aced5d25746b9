// Package logger builds the structured application log for the shell.
//
// The shell's own output streams belong to the user, so logs only ever go to
// the file named in the configuration, and nowhere if it's empty.
package logger
