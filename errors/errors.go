package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrUserAlreadyExists = fmt.Errorf("username already exists")
	ErrUserNotFound      = fmt.Errorf("user not found")
)
