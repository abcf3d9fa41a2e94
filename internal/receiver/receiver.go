// Package receiver serves the OTLP/gRPC TraceService and renders exported
// spans through the same walker as the HTTP intake.
package receiver

import (
	"context"
	"log/slog"
	"net"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/envelope"
)

// Receiver implements the OTLP gRPC TraceService.
type Receiver struct {
	coltracepb.UnimplementedTraceServiceServer
	walker *envelope.Walker
	logger *slog.Logger
}

func New(walker *envelope.Walker, logger *slog.Logger) *Receiver {
	return &Receiver{
		walker: walker,
		logger: logger,
	}
}

// Export renders every span of req. Unknown enum values are reported as
// InvalidArgument and nothing is rendered.
func (r *Receiver) Export(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) (*coltracepb.ExportTraceServiceResponse, error) {
	n, err := r.walker.Walk(req)
	if err != nil {
		r.logger.Warn("Rejected gRPC export request", slog.String("error", err.Error()))
		if apperrors.IsDecode(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	r.logger.Debug("Accepted gRPC export request", slog.Int("spans", n))
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

// Server owns the gRPC server the receiver is registered on.
type Server struct {
	grpcServer *grpc.Server
	logger     *slog.Logger
}

func NewServer(receiver *Receiver, logger *slog.Logger) *Server {
	gs := grpc.NewServer()
	coltracepb.RegisterTraceServiceServer(gs, receiver)
	return &Server{
		grpcServer: gs,
		logger:     logger,
	}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC intake listening", slog.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
