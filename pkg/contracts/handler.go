package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a set of API routes on the application router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

type HandlerFunc func(*httprouter.Router)

func (f HandlerFunc) RegisterRoutes(router *httprouter.Router) {
	f(router)
}

// Group registers handlers in order. Nil entries are skipped.
func Group(handlers ...Handler) Handler {
	return HandlerFunc(func(router *httprouter.Router) {
		for _, h := range handlers {
			if h != nil {
				h.RegisterRoutes(router)
			}
		}
	})
}
