// Package ratepb описывает gRPC сервис курсов ledger.rates.v1.RateService.
// Сообщения передаются как google.protobuf.Struct, поэтому кодогенерация не нужна.
package ratepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "ledger.rates.v1.RateService"
	GetRateMethod = "/ledger.rates.v1.RateService/GetRate"
)

type RateServiceServer interface {
	GetRate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type RateServiceClient interface {
	GetRate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

var RateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRate",
			Handler:    getRateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/rates/v1/rates.proto",
}

func RegisterRateServiceServer(s grpc.ServiceRegistrar, srv RateServiceServer) {
	s.RegisterService(&RateServiceDesc, srv)
}

func getRateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RateServiceServer).GetRate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetRateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RateServiceServer).GetRate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type rateServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRateServiceClient(cc grpc.ClientConnInterface) RateServiceClient {
	return &rateServiceClient{cc: cc}
}

func (c *rateServiceClient) GetRate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetRateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
