package gmlerr

import "fmt"

// Option is an Error option function
type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }

func WithMessagef(format string, args ...interface{}) Option {
	return func(e *Error) { e.Message = fmt.Sprintf(format, args...) }
}

func WithType(t Type) Option         { return func(e *Error) { e.Type = t } }
func WithLocation(l Location) Option { return func(e *Error) { e.Location = l } }
func WithElement(name string) Option { return func(e *Error) { e.Element = name } }
