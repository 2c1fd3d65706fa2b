// Package grpcserver adapts the ingest service to the RPC surface.
package grpcserver

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"orderflow/api/pb"
	"orderflow/domain/orderbook"
	"orderflow/engine"
	"orderflow/ingest"
)

type Server struct {
	svc *ingest.Service
	eng *engine.MatchingEngine
	log *logrus.Entry
}

func NewServer(svc *ingest.Service, eng *engine.MatchingEngine, log *logrus.Logger) *Server {
	return &Server{
		svc: svc,
		eng: eng,
		log: log.WithField("component", "grpc"),
	}
}

// -------------------- Commands --------------------

func (s *Server) SubmitOrder(ctx context.Context, req *pb.SubmitOrderRequest) (*pb.SubmitOrderResponse, error) {
	o, err := ingest.BuildOrder(req.OrderId, req.Symbol, req.Side, req.Price, strconv.FormatInt(req.Quantity, 10))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	trades, err := s.svc.Submit(ctx, o)
	if err != nil {
		switch err {
		case orderbook.ErrDuplicateOrderID:
			return nil, status.Error(codes.AlreadyExists, err.Error())
		default:
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	s.log.WithFields(logrus.Fields{
		"order":  o.ID,
		"symbol": o.Symbol,
		"trades": len(trades),
	}).Debug("order submitted")

	resp := &pb.SubmitOrderResponse{
		Status: o.Status.String(),
		Trades: make([]*pb.Trade, 0, len(trades)),
	}
	for i := range trades {
		resp.Trades = append(resp.Trades, tradeToWire(&trades[i]))
	}
	return resp, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *pb.CancelOrderRequest) (*pb.CancelOrderResponse, error) {
	if req.Symbol == "" || req.OrderId == "" {
		return nil, status.Error(codes.InvalidArgument, "symbol and order id are required")
	}
	ok, err := s.svc.Cancel(req.Symbol, req.OrderId)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &pb.CancelOrderResponse{Cancelled: ok}, nil
}

// -------------------- Queries --------------------

func (s *Server) GetQuote(ctx context.Context, req *pb.QuoteRequest) (*pb.QuoteResponse, error) {
	q, ok := s.eng.GetQuote(req.Symbol)
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown symbol")
	}
	resp := &pb.QuoteResponse{Symbol: q.Symbol}
	if q.HasBid {
		resp.Bid = orderbook.FormatPrice(q.Bid)
	}
	if q.HasAsk {
		resp.Ask = orderbook.FormatPrice(q.Ask)
	}
	return resp, nil
}

func (s *Server) GetStats(ctx context.Context, req *pb.StatsRequest) (*pb.StatsResponse, error) {
	stats := s.eng.BookStats()
	resp := &pb.StatsResponse{
		Books:      make([]*pb.BookStat, 0, len(stats)),
		TradeCount: s.eng.TradeCount(),
	}
	for symbol, n := range stats {
		resp.Books = append(resp.Books, &pb.BookStat{
			Symbol:        symbol,
			RestingOrders: int64(n),
		})
	}
	return resp, nil
}

func tradeToWire(t *orderbook.TradeResult) *pb.Trade {
	return &pb.Trade{
		TradeId:     t.TradeID,
		BuyOrderId:  t.BuyOrderID,
		SellOrderId: t.SellOrderID,
		Symbol:      t.Symbol,
		Price:       orderbook.FormatPrice(t.Price),
		Quantity:    t.Quantity,
		ExecutedAt:  t.ExecutedAt.UnixNano(),
	}
}
