// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"banya/internal/pkg/bootstrap"
	"banya/internal/pkg/logger"
	"banya/internal/pkg/mq"
	"banya/internal/service/booking/domain"
	"banya/internal/service/booking/infrastructure/adapter"
)

const (
	serviceName = "push-gateway"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	nodeID   = serviceName + "-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 前台面板同源部署，放开跨域
			return true
		},
	}
)

// Hub 维护所有活跃的连接，按门店分组广播预订动态。
// 前台面板按自己的 bathhouse_id 订阅，只收到本店的事件。
type Hub struct {
	clients    map[uint]map[*Client]bool // bathhouseID -> 订阅者集合
	register   chan *Client
	unregister chan *Client
	broadcast  chan *domain.BookingEvent
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *domain.BookingEvent, 64),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if h.clients[client.bathhouseID] == nil {
				h.clients[client.bathhouseID] = make(map[*Client]bool)
			}
			h.clients[client.bathhouseID][client] = true
			h.lock.Unlock()
			log.Printf("Client for bathhouse %d registered on node %s", client.bathhouseID, nodeID)
		case client := <-h.unregister:
			h.lock.Lock()
			if subs, ok := h.clients[client.bathhouseID]; ok && subs[client] {
				delete(subs, client)
				close(client.send)
			}
			h.lock.Unlock()
			log.Printf("Client for bathhouse %d unregistered.", client.bathhouseID)
		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.lock.RLock()
			for client := range h.clients[event.BathhouseID] {
				select {
				case client.send <- payload:
				default:
					// 慢客户端的缓冲已满，丢弃这条消息保全其他订阅者
				}
			}
			h.lock.RUnlock()
		}
	}
}

// Client 是一个WebSocket连接的代表。
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	bathhouseID uint
}

// writePump 将 send channel 中的消息写入 websocket，并按周期发心跳。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 已注销这个客户端
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取心跳应答并在连接断开时注销客户端。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	// 1. 从URL参数获取门店ID
	bathhouseID, err := strconv.ParseUint(r.URL.Query().Get("bathhouse_id"), 10, 32)
	if err != nil {
		http.Error(w, "bathhouse_id is required", http.StatusBadRequest)
		return
	}

	// 2. HTTP升级为WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	// 3. 创建客户端实例并注册到Hub
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), bathhouseID: uint(bathhouseID)}
	client.hub.register <- client

	// 4. 启动读写goroutine
	go client.writePump()
	go client.readPump()
}

// consumeEvents 订阅生命周期事件主题并喂给 Hub。
func consumeEvents(ctx context.Context, hub *Hub, brokers []string) {
	reader := mq.NewKafkaReader(brokers, adapter.EventsTopic, serviceName+"-"+nodeID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("could not read message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var event domain.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			eventCtx := mq.ExtractTraceContext(ctx, msg.Headers)
			logger.Ctx(eventCtx).Error().Err(err).Msg("failed to unmarshal booking event")
			continue
		}
		hub.broadcast <- &event
	}
}

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	hub := newHub()
	go hub.run()

	g, ctx := errgroup.WithContext(context.Background())

	// 每个网关节点用独立的消费组，各自拿到全量事件流
	g.Go(func() error {
		consumeEvents(ctx, hub, cfg.Infra.Kafka.Brokers)
		return nil
	})

	g.Go(func() error {
		http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			serveWs(hub, w, r)
		})
		log.Printf("Push Gateway (%s) started on :8088", nodeID)
		return http.ListenAndServe(":8088", nil)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("push-gateway: ", err)
	}
}
