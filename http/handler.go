package http

// Handler is invoked once per completely received request. It must eventually call
// Request.Finish, optionally preceded by any number of Request.Write calls. Doing
// that from another goroutine is fine.
type Handler interface {
	Handle(*Request)
}

type HandlerFunc func(*Request)

func (f HandlerFunc) Handle(r *Request) {
	f(r)
}
