package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described by hand over well-known types, so there is no
// generated code to keep in sync.
const (
	ServiceName       = "gradebot.v1.GradeQuery"
	LookupMethod      = "/" + ServiceName + "/Lookup"
	RenderChartMethod = "/" + ServiceName + "/RenderChart"
)

// GradeQueryServer is the server API for the GradeQuery service.
type GradeQueryServer interface {
	Lookup(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	RenderChart(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

func RegisterGradeQueryServer(s grpc.ServiceRegistrar, srv GradeQueryServer) {
	s.RegisterService(&GradeQueryServiceDesc, srv)
}

var GradeQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GradeQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Lookup", Handler: lookupHandler},
		{MethodName: "RenderChart", Handler: renderChartHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gradebot/v1/grade_query.proto",
}

func lookupHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradeQueryServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LookupMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GradeQueryServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func renderChartHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradeQueryServer).RenderChart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RenderChartMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GradeQueryServer).RenderChart(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls a GradeQuery service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Lookup(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LookupMethod, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RenderChart(ctx context.Context, query string, opts ...grpc.CallOption) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, RenderChartMethod, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}
