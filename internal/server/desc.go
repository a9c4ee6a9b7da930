package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ticketrecord.v1.TicketService"

// TicketServiceServer is implemented by TicketServer. Messages are well-known
// protobuf types so the service needs no generated code.
type TicketServiceServer interface {
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractStructured(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NormalizeFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transcribe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportRecords(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

func unary[Req proto.Message, Resp proto.Message](
	name string,
	newReq func() Req,
	call func(TicketServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TicketServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TicketServiceServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

// TicketServiceDesc describes the service for grpc.Server.RegisterService.
var TicketServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TicketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ExtractText", newStruct, TicketServiceServer.ExtractText),
		unary("ExtractFields", newStruct, TicketServiceServer.ExtractFields),
		unary("ExtractStructured", newStruct, TicketServiceServer.ExtractStructured),
		unary("NormalizeFields", newStruct, TicketServiceServer.NormalizeFields),
		unary("Transcribe", newStruct, TicketServiceServer.Transcribe),
		unary("ListRecords", newStruct, TicketServiceServer.ListRecords),
		unary("ExportRecords", func() *emptypb.Empty { return &emptypb.Empty{} }, TicketServiceServer.ExportRecords),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketrecord/v1/ticket.proto",
}

func RegisterTicketServiceServer(s grpc.ServiceRegistrar, srv TicketServiceServer) {
	s.RegisterService(&TicketServiceDesc, srv)
}

// TicketClient calls TicketService over an existing connection.
type TicketClient struct {
	cc grpc.ClientConnInterface
}

func NewTicketClient(cc grpc.ClientConnInterface) *TicketClient {
	return &TicketClient{cc: cc}
}

func (c *TicketClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TicketClient) ExtractText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ExtractText", in, opts...)
}

func (c *TicketClient) ExtractFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ExtractFields", in, opts...)
}

func (c *TicketClient) ExtractStructured(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ExtractStructured", in, opts...)
}

func (c *TicketClient) NormalizeFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "NormalizeFields", in, opts...)
}

func (c *TicketClient) Transcribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "Transcribe", in, opts...)
}

func (c *TicketClient) ListRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListRecords", in, opts...)
}

func (c *TicketClient) ExportRecords(ctx context.Context, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ExportRecords", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
