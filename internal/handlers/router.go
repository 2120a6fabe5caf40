package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	relayHandler http.Handler,
	authMiddleware func(http.Handler) http.Handler,
	loggerMiddleware func(http.Handler) http.Handler,
) http.Handler {
	root := http.NewServeMux()

	root.Handle("/", authHandler.Handler())
	root.Handle("GET /protected", authMiddleware(handleProtected()))
	root.Handle("GET /dashboard", authMiddleware(handleDashboard()))
	root.Handle("GET /ws", relayHandler)

	return chain(root, loggerMiddleware)
}
