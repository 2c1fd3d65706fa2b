// Package httpserver exposes the venue over HTTP: order entry, book
// queries, stats and a websocket trade stream.
package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"orderflow/domain/orderbook"
	"orderflow/engine"
	"orderflow/infra/cache"
	"orderflow/ingest"
	"orderflow/marketdata"
)

type Server struct {
	svc      *ingest.Service
	eng      *engine.MatchingEngine
	cache    *cache.OrderCache
	trades   *marketdata.TradeHub
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewServer(
	svc *ingest.Service,
	eng *engine.MatchingEngine,
	orderCache *cache.OrderCache,
	trades *marketdata.TradeHub,
	log *logrus.Logger,
) *Server {
	return &Server{
		svc:      svc,
		eng:      eng,
		cache:    orderCache,
		trades:   trades,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log.WithField("component", "http"),
	}
}

// Routes builds the gin engine with all handlers attached.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.POST("/orders", s.handleSubmit)
	r.DELETE("/orders/:symbol/:id", s.handleCancel)
	r.GET("/orders/:symbol/:id", s.handleLookup)
	r.GET("/quote/:symbol", s.handleQuote)
	r.GET("/depth/:symbol", s.handleDepth)
	r.GET("/stats", s.handleStats)
	r.GET("/ws/trades", s.handleTradeStream)
	r.GET("/ws/book/:symbol", s.handleBookStream)
	return r
}

type orderRequest struct {
	OrderID  string `json:"orderId" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
	Side     string `json:"side" binding:"required"`
	Price    string `json:"price" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

type tradeView struct {
	TradeID     string `json:"tradeId"`
	BuyOrderID  string `json:"buyOrderId"`
	SellOrderID string `json:"sellOrderId"`
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
	ExecutedAt  int64  `json:"executedAt"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := ingest.BuildOrder(req.OrderID, req.Symbol, req.Side, req.Price, strconv.FormatInt(req.Quantity, 10))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades, err := s.svc.Submit(c.Request.Context(), o)
	if err != nil {
		status := http.StatusBadRequest
		if err == orderbook.ErrDuplicateOrderID {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	views := make([]tradeView, 0, len(trades))
	for i := range trades {
		views = append(views, toTradeView(&trades[i]))
	}
	c.JSON(http.StatusCreated, gin.H{
		"orderId": o.ID,
		"status":  o.Status.String(),
		"trades":  views,
	})
}

func (s *Server) handleCancel(c *gin.Context) {
	symbol := c.Param("symbol")
	id := c.Param("id")

	ok, err := s.svc.Cancel(symbol, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"cancelled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) handleLookup(c *gin.Context) {
	o, ok := s.svc.LookupOrder(c.Param("symbol"), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":   o.ID,
		"symbol":    o.Symbol,
		"side":      o.Side.String(),
		"price":     orderbook.FormatPrice(o.Price),
		"quantity":  o.Quantity,
		"filled":    o.Filled,
		"remaining": o.Remaining(),
		"status":    o.Status.String(),
	})
}

func (s *Server) handleQuote(c *gin.Context) {
	q, ok := s.eng.GetQuote(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	resp := gin.H{"symbol": q.Symbol}
	if q.HasBid {
		resp["bid"] = orderbook.FormatPrice(q.Bid)
	}
	if q.HasAsk {
		resp["ask"] = orderbook.FormatPrice(q.Ask)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDepth(c *gin.Context) {
	const maxLevels = 20
	depth, ok := s.eng.Depth(c.Param("symbol"), maxLevels)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	c.JSON(http.StatusOK, depth)
}

func (s *Server) handleStats(c *gin.Context) {
	resp := gin.H{
		"books":      s.eng.BookStats(),
		"tradeCount": s.eng.TradeCount(),
		"metrics":    s.svc.Metrics().Snapshot(),
	}
	if s.cache != nil {
		resp["cache"] = s.cache.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// handleTradeStream upgrades to a websocket and relays executed trades until
// the client goes away.
func (s *Server) handleTradeStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.trades.Subscribe(64)
	defer s.trades.Unsubscribe(sub)

	for t := range sub.C() {
		if err := conn.WriteJSON(toTradeView(&t)); err != nil {
			return
		}
	}
}

// handleBookStream pushes top-of-book snapshots for one symbol whenever the
// quote changes, polled at a fixed cadence.
func (s *Server) handleBookStream(c *gin.Context) {
	symbol := c.Param("symbol")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last orderbook.Quote
	sent := false
	for range ticker.C {
		q, ok := s.eng.GetQuote(symbol)
		if !ok {
			continue
		}
		if sent && q == last {
			continue
		}
		last = q
		sent = true

		msg := gin.H{"symbol": q.Symbol}
		if q.HasBid {
			msg["bid"] = orderbook.FormatPrice(q.Bid)
		}
		if q.HasAsk {
			msg["ask"] = orderbook.FormatPrice(q.Ask)
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func toTradeView(t *orderbook.TradeResult) tradeView {
	return tradeView{
		TradeID:     t.TradeID,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Symbol:      t.Symbol,
		Price:       orderbook.FormatPrice(t.Price),
		Quantity:    t.Quantity,
		ExecutedAt:  t.ExecutedAt.UnixNano(),
	}
}
