package api

import "github.com/RoyceAzure/lab/cartstore/internal/api/handler"

type Server struct {
	CartHandler    *handler.CartHandler
	ProductHandler *handler.ProductHandler
}

func NewServer(
	cartHandler *handler.CartHandler,
	productHandler *handler.ProductHandler,
) *Server {
	return &Server{
		CartHandler:    cartHandler,
		ProductHandler: productHandler,
	}
}
