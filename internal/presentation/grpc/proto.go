package grpc

// proto.go defines the server interface for txshield.risk.v1.RiskService.
// It stands in for generated code; messages travel with the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const riskServiceName = "txshield.risk.v1.RiskService"

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	ScoreTransaction(context.Context, *ScoreTransactionRequest) (*ScoreTransactionResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	GetFraudStats(context.Context, *GetFraudStatsRequest) (*GetFraudStatsResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) ScoreTransaction(context.Context, *ScoreTransactionRequest) (*ScoreTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreTransaction not implemented")
}
func (UnimplementedRiskServiceServer) ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListTransactions not implemented")
}
func (UnimplementedRiskServiceServer) GetFraudStats(context.Context, *GetFraudStatsRequest) (*GetFraudStatsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetFraudStats not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&riskServiceDesc, srv)
}

// Full method names, used by clients and interceptors.
const (
	MethodScoreTransaction = "/" + riskServiceName + "/ScoreTransaction"
	MethodListTransactions = "/" + riskServiceName + "/ListTransactions"
	MethodGetFraudStats    = "/" + riskServiceName + "/GetFraudStats"
)

var riskServiceDesc = grpclib.ServiceDesc{
	ServiceName: riskServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreTransaction", Handler: scoreTransactionHandler},
		{MethodName: "ListTransactions", Handler: listTransactionsHandler},
		{MethodName: "GetFraudStats", Handler: getFraudStatsHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "txshield/risk/v1/risk.proto",
}

func scoreTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ScoreTransactionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ScoreTransaction(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodScoreTransaction}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).ScoreTransaction(ctx, req.(*ScoreTransactionRequest))
	})
}

func listTransactionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ListTransactionsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ListTransactions(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodListTransactions}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).ListTransactions(ctx, req.(*ListTransactionsRequest))
	})
}

func getFraudStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetFraudStatsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetFraudStats(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetFraudStats}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).GetFraudStats(ctx, req.(*GetFraudStatsRequest))
	})
}
