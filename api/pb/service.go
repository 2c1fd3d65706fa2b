package pb

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "orderflow.OrderFlow"

// OrderFlowServer is the RPC surface of the venue.
type OrderFlowServer interface {
	SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error)
	CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error)
	GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
	GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error)
}

// RegisterOrderFlowServer attaches srv to a grpc server.
func RegisterOrderFlowServer(s *grpc.Server, srv OrderFlowServer) {
	s.RegisterService(&orderFlowServiceDesc, srv)
}

var orderFlowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderFlowServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitOrder", Handler: submitOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "GetQuote", Handler: getQuoteHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderflow",
}

func submitOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderFlowServer).SubmitOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SubmitOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderFlowServer).SubmitOrder(ctx, req.(*SubmitOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderFlowServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CancelOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderFlowServer).CancelOrder(ctx, req.(*CancelOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderFlowServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetQuote"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderFlowServer).GetQuote(ctx, req.(*QuoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderFlowServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetStats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderFlowServer).GetStats(ctx, req.(*StatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderFlowClient is the dial-side counterpart.
type OrderFlowClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderFlowClient(cc grpc.ClientConnInterface) *OrderFlowClient {
	return &OrderFlowClient{cc: cc}
}

func (c *OrderFlowClient) invoke(ctx context.Context, method string, in, out Message) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype(CodecName))
}

func (c *OrderFlowClient) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	out := new(SubmitOrderResponse)
	if err := c.invoke(ctx, "SubmitOrder", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderFlowClient) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error) {
	out := new(CancelOrderResponse)
	if err := c.invoke(ctx, "CancelOrder", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderFlowClient) GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	out := new(QuoteResponse)
	if err := c.invoke(ctx, "GetQuote", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderFlowClient) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.invoke(ctx, "GetStats", req, out); err != nil {
		return nil, err
	}
	return out, nil
}
