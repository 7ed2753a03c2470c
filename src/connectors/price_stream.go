package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const dealsChannel = "spot@public.deals.v3.api@"

// PriceStream subscribes to the pair's public deals and writes every last price into
// the shared PriceCache, so Client.Price rarely needs a REST round trip.
type PriceStream struct {
	url            string
	pair           string
	prices         *PriceCache
	pingInterval   time.Duration
	reconnectDelay time.Duration
	dialer         websocket.Dialer
}

type wsRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

type wsDeal struct {
	Price string `json:"p"`
	Qty   string `json:"v"`
	Side  int    `json:"S"`
	Time  int64  `json:"t"`
}

type wsMessage struct {
	Channel string `json:"c"`
	Symbol  string `json:"s"`
	Data    struct {
		Deals []wsDeal `json:"deals"`
	} `json:"d"`
	// subscription acks and PONG replies
	Msg string `json:"msg"`
}

func NewPriceStream(cfg Config, pair string, prices *PriceCache) *PriceStream {
	ping := cfg.WSPingInterval
	if ping <= 0 {
		ping = 20 * time.Second
	}
	delay := cfg.WSReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &PriceStream{
		url:            cfg.MexcWSURL,
		pair:           strings.ToUpper(pair),
		prices:         prices,
		pingInterval:   ping,
		reconnectDelay: delay,
		dialer: websocket.Dialer{
			HandshakeTimeout:  15 * time.Second,
			EnableCompression: true,
			Proxy:             http.ProxyFromEnvironment,
		},
	}
}

// Run keeps a subscription open until ctx is canceled, reconnecting after failures.
func (s *PriceStream) Run(ctx context.Context) error {
	log := logger.WithFields(map[string]interface{}{
		"component": "PriceStream",
		"pair":      s.pair,
	})

	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			log.Info("price stream stopped")
			return nil
		}
		log.WithError(err).Warn("price stream disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *PriceStream) consume(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("ws dial failed: %w", err)
	}
	defer conn.Close()

	sub := wsRequest{Method: "SUBSCRIPTION", Params: []string{dealsChannel + s.pair}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("ws subscribe failed: %w", err)
	}

	// closing the conn unblocks ReadMessage when ctx ends
	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, conn, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws read failed: %w", err)
		}
		s.handle(msg)
	}
}

func (s *PriceStream) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteJSON(wsRequest{Method: "PING"}); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// handle applies the newest deal price of a deals push. Other frames are ignored.
func (s *PriceStream) handle(msg []byte) {
	var m wsMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.WithField("component", "PriceStream").WithError(err).Debug("ws json unmarshal error")
		return
	}
	if !strings.HasPrefix(m.Channel, dealsChannel) || len(m.Data.Deals) == 0 {
		return
	}

	latest := m.Data.Deals[0]
	for _, d := range m.Data.Deals[1:] {
		if d.Time > latest.Time {
			latest = d
		}
	}
	price, err := ParseNumber(latest.Price)
	if err != nil || price <= 0 {
		return
	}

	pair := s.pair
	if m.Symbol != "" {
		pair = strings.ToUpper(m.Symbol)
	}
	s.prices.Set(pair, price)
}
