package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/docuchat/docuchat/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates API route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the RAG endpoints. They live at the root to stay
// compatible with existing clients.
func (r *Routes) Register(router gin.IRouter) {
	router.POST("/upload", r.handlers.RAG.Upload)
	router.POST("/query", r.handlers.RAG.Query)
	router.POST("/chat", r.handlers.RAG.Query)
	router.GET("/status", r.handlers.RAG.Status)
	router.POST("/reset", r.handlers.RAG.Reset)
}
