package grpc

import (
	"net"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	srv *grpc.Server
}

var S *Server

func NewGRPC() {
	server := &Server{
		srv: grpc.NewServer(),
	}

	health.RegisterHealthServer(server.srv, server)

	reflection.Register(server.srv)

	S = server
}

func ListenGRPC() {
	listener, err := net.Listen("tcp", viper.GetString("grpc_bind"))
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when listening grpc bind address...")
	}

	if err := S.srv.Serve(listener); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting grpc server...")
	}
}
