package proximity

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/proximity-alert/internal/domain/proximity"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "proximity.v1.ProximityService"
	// GetProximityStateMethod is the full method name of the status call.
	GetProximityStateMethod = "/" + ServiceName + "/GetProximityState"
)

// Service abstracts the engine state the transport layer exposes.
type Service interface {
	GetProximityState(ctx context.Context) *domain.Status
}

// StatusServer is the server API of the status service.
type StatusServer interface {
	GetProximityState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// Server implements StatusServer on top of a Service.
type Server struct {
	// service provides the engine snapshot.
	service Service
}

// NewServer wires the provided service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetProximityState returns the latest engine snapshot.
func (s *Server) GetProximityState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.service == nil {
		return nil, status.Error(codes.Unavailable, "engine is not running")
	}

	state := s.service.GetProximityState(ctx)
	if state == nil {
		return nil, status.Error(codes.Unavailable, "engine is not running")
	}

	msg, err := ToStruct(state)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return msg, nil
}

// RegisterStatusServer registers srv on the registrar.
func RegisterStatusServer(registrar grpc.ServiceRegistrar, srv StatusServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

// serviceDesc describes the status service to grpc-go.
//
//nolint:gochecknoglobals // grpc-go requires a descriptor with a stable address.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetProximityState",
			Handler:    getProximityStateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proximity/v1/proximity.proto",
}

// getProximityStateHandler decodes the request and dispatches it through the interceptor chain.
func getProximityStateHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, ok := srv.(StatusServer)
	if !ok {
		return nil, status.Error(codes.Internal, "unexpected server type")
	}

	if interceptor == nil {
		return server.GetProximityState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetProximityStateMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		empty, _ := req.(*emptypb.Empty)

		return server.GetProximityState(ctx, empty)
	}

	return interceptor(ctx, in, info, handler)
}
