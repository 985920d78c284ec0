package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP surface mounted by pkg/app: the
// venue and booking APIs share one router, health checks get their own.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
